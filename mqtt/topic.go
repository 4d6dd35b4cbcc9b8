package mqtt

import "strings"

const TopicSeparator = "/"

// TrimTopic trims TopicSeparator from the start and end of the specified topic.
func TrimTopic(topic string) string {
	return strings.Trim(topic, TopicSeparator)
}

// JoinTopic joins non-empty component parts with TopicSeparator, trimming each part before it is appended.
func JoinTopic(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = TrimTopic(part); part != "" {
			kept = append(kept, part)
		}
	}

	return strings.Join(kept, TopicSeparator)
}

// CutTopicPrefix returns topic without the levels in prefix, and reports whether topic is below prefix. A topic equal
// to prefix is not below it.
func CutTopicPrefix(topic, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(TrimTopic(topic), TrimTopic(prefix)+TopicSeparator)
	if !ok || rest == "" {
		return "", false
	}

	return rest, true
}

// LastLevel returns the final level of topic.
func LastLevel(topic string) string {
	topic = TrimTopic(topic)
	if i := strings.LastIndex(topic, TopicSeparator); i >= 0 {
		return topic[i+1:]
	}

	return topic
}
