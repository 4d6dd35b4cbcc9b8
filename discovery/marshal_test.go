package discovery

import (
	"bytes"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardEncoder() *jsontext.Encoder {
	return jsontext.NewEncoder(io.Discard)
}

func capturingEncoder() (*jsontext.Encoder, *bytes.Buffer) {
	b := &bytes.Buffer{}
	return jsontext.NewEncoder(
		b,
		jsontext.AllowDuplicateNames(false),
		jsontext.AllowInvalidUTF8(false),
		jsontext.SpaceAfterComma(false),
		jsontext.SpaceAfterColon(false),
		jsontext.Multiline(false),
	), b
}

func TestDefaultMarshalers(t *testing.T) {
	t.Run("URL as string", func(t *testing.T) {
		e, b := capturingEncoder()

		u, err := url.Parse("http://example.com")
		require.NoError(t, err)

		require.NoError(t, json.MarshalEncode(e, map[string]*url.URL{"sut": u}, json.WithMarshalers(Marshalers)))

		assert.Equal(t, `{"sut":"http://example.com"}`, strings.TrimSpace(b.String()))
	})
}

func TestMarshalRequiredTopic(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		require.ErrorIs(
			t,
			MarshalRequiredTopic("sut", discardEncoder(), "", ""),
			ErrTopicRequired,
		)
	})

	t.Run("OK", func(t *testing.T) {
		e, b := capturingEncoder()

		require.NoError(t, MarshalRequiredTopic("", e, "foo", "bar/fizz/buzz"))
		require.EqualValues(t, "\"foo\"\n\"bar/fizz/buzz\"\n", b.String())
	})
}

func TestMaybeMarshalTopic(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		e, b := capturingEncoder()

		require.NoError(t, MaybeMarshalTopic(e, "", ""))
		require.Empty(t, b.Bytes())
	})

	t.Run("OK", func(t *testing.T) {
		e, b := capturingEncoder()

		require.NoError(t, MaybeMarshalTopic(e, "foo", "bar/fizz/buzz"))
		require.EqualValues(t, "\"foo\"\n\"bar/fizz/buzz\"\n", b.String())
	})
}

func TestMarshalAlways(t *testing.T) {
	e, b := capturingEncoder()

	require.NoError(t, MarshalAlways(e, "foo", false))
	require.EqualValues(t, "\"foo\"\nfalse\n", b.String())
}

func TestMarshalStd(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		e, b := capturingEncoder()

		require.ErrorIs(t, MarshalStd[int]("sut", e, "foo", nil), ErrValueRequired)
		require.Empty(t, b.Bytes())
	})

	t.Run("OK", func(t *testing.T) {
		e, b := capturingEncoder()

		v := 123
		require.NoError(t, MarshalStd("sut", e, "foo", &v))
		require.EqualValues(t, "\"foo\"\n123\n", b.String())
	})
}

func TestMaybeMarshalStd(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		e, b := capturingEncoder()

		require.NoError(t, MaybeMarshalStd[float64](e, "foo", nil))
		require.Empty(t, b.Bytes())
	})

	t.Run("Zero is still written", func(t *testing.T) {
		e, b := capturingEncoder()

		v := 0.0
		require.NoError(t, MaybeMarshalStd(e, "min", &v))
		require.EqualValues(t, "\"min\"\n0\n", b.String())
	})
}

func TestMaybeMarshalStdSlice(t *testing.T) {
	t.Run("no elements", func(t *testing.T) {
		e, b := capturingEncoder()

		require.NoError(t, MaybeMarshalStdSlice(e, "foo", []int{}))
		require.Empty(t, b.Bytes())
	})

	t.Run("nil", func(t *testing.T) {
		e, b := capturingEncoder()

		require.NoError(t, MaybeMarshalStdSlice[int](e, "foo", nil))
		require.Empty(t, b.Bytes())
	})

	t.Run("OK", func(t *testing.T) {
		e, b := capturingEncoder()

		require.NoError(t, MaybeMarshalStdSlice(e, "foo", []string{"low", "medium", "high"}))
		require.EqualValues(t, "\"foo\"\n[\"low\",\"medium\",\"high\"]\n", b.String())
	})
}

func TestMarshalStdComparable(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		e, b := capturingEncoder()

		require.ErrorIs(t, MarshalStdComparable("sut", e, "foo", ""), ErrValueRequired)
		require.Empty(t, b.Bytes())
	})

	t.Run("Not Default", func(t *testing.T) {
		e, b := capturingEncoder()

		require.NoError(t, MarshalStdComparable("sut", e, "foo", "bar"))
		require.EqualValues(t, "\"foo\"\n\"bar\"\n", b.String())
	})
}

func TestMaybeMarshalStdComparable(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		e, b := capturingEncoder()

		require.NoError(t, MaybeMarshalStdComparable(e, "foo", ""))
		require.Empty(t, b.Bytes())
	})

	t.Run("Not Default", func(t *testing.T) {
		e, b := capturingEncoder()

		require.NoError(t, MaybeMarshalStdComparable(e, "foo", 123))
		require.EqualValues(t, "\"foo\"\n123\n", b.String())
	})
}
