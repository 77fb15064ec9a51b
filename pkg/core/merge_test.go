package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aquarium/pkg/core"
)

func TestApplyWrite(t *testing.T) {
	current := []byte(`{"calendar":{"2024-06-01":{"diary":"a"},"2024-06-02":{"diary":"b"}},"vision":[{"url":"u"}]}`)

	t.Run("merge keeps untouched keys and drops tombstones", func(t *testing.T) {
		out, err := core.ApplyWrite(current, true, []byte(`{"calendar":{"2024-06-01":null,"2024-06-03":{"diary":"c"}}}`), core.WriteOptions{Merge: true})
		require.NoError(t, err)
		assert.JSONEq(t, `{"calendar":{"2024-06-02":{"diary":"b"},"2024-06-03":{"diary":"c"}},"vision":[{"url":"u"}]}`, string(out))
	})

	t.Run("merge replaces arrays", func(t *testing.T) {
		out, err := core.ApplyWrite(current, true, []byte(`{"vision":[]}`), core.WriteOptions{Merge: true})
		require.NoError(t, err)
		assert.JSONEq(t, `{"calendar":{"2024-06-01":{"diary":"a"},"2024-06-02":{"diary":"b"}},"vision":[]}`, string(out))
	})

	t.Run("merge into missing document", func(t *testing.T) {
		out, err := core.ApplyWrite(nil, false, []byte(`{"vision":[]}`), core.WriteOptions{Merge: true})
		require.NoError(t, err)
		assert.JSONEq(t, `{"vision":[]}`, string(out))
	})

	t.Run("replace", func(t *testing.T) {
		out, err := core.ApplyWrite(current, true, []byte(`{"calendar":{}}`), core.WriteOptions{})
		require.NoError(t, err)
		assert.JSONEq(t, `{"calendar":{}}`, string(out))
	})

	t.Run("invalid payload", func(t *testing.T) {
		_, err := core.ApplyWrite(current, true, []byte(`nope`), core.WriteOptions{Merge: true})
		assert.Error(t, err)
	})
}

func TestApplyPatch(t *testing.T) {
	t.Run("append to fresh document", func(t *testing.T) {
		out, err := core.ApplyPatch(nil, false, []byte(`[{"op":"add","path":"/vision/-","value":{"url":"u","caption":""}}]`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"calendar":{},"vision":[{"url":"u","caption":""}]}`, string(out))
	})

	t.Run("materializes missing members", func(t *testing.T) {
		out, err := core.ApplyPatch([]byte(`{"calendar":{"2024-06-01":{"diary":"a"}}}`), true, []byte(`[{"op":"add","path":"/vision/-","value":{"url":"u"}}]`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"calendar":{"2024-06-01":{"diary":"a"}},"vision":[{"url":"u"}]}`, string(out))
	})

	t.Run("failed test op is a conflict", func(t *testing.T) {
		_, err := core.ApplyPatch([]byte(`{"calendar":{},"vision":[{"url":"a"}]}`), true,
			[]byte(`[{"op":"test","path":"/vision/0/url","value":"b"},{"op":"remove","path":"/vision/0"}]`))
		assert.ErrorIs(t, err, core.ErrConflict)
	})

	t.Run("malformed ops", func(t *testing.T) {
		_, err := core.ApplyPatch(nil, false, []byte(`{}`))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, core.ErrConflict)
	})
}
