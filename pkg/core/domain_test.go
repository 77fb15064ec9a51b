package core_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aquarium/pkg/core"
)

func TestDecodeDocument_Defaults(t *testing.T) {
	for _, input := range []string{"", "null", "{}"} {
		doc, err := core.DecodeDocument([]byte(input))
		require.NoError(t, err, input)
		assert.NotNil(t, doc.Calendar, input)
		assert.NotNil(t, doc.Vision, input)
		assert.Empty(t, doc.Calendar, input)
		assert.Empty(t, doc.Vision, input)
	}
}

func TestDecodeDocument_Materializes(t *testing.T) {
	doc, err := core.DecodeDocument([]byte(`{"calendar":{"2024-06-01":{"mood":"sad"}}}`))
	require.NoError(t, err)

	day := doc.Day("2024-06-01")
	assert.Equal(t, core.MoodSad, day.Mood)
	assert.NotNil(t, day.Tasks)
	assert.Empty(t, day.Tasks)
}

func TestDocument_DayAbsentIsEmpty(t *testing.T) {
	doc := core.NewDocument()
	day := doc.Day("2024-01-01")
	assert.True(t, day.IsEmpty())
	assert.NotContains(t, doc.Calendar, "2024-01-01")
}

func TestDocument_Clone(t *testing.T) {
	doc := core.NewDocument()
	doc.Calendar["2024-06-01"] = core.DayRecord{Tasks: []core.Task{{Text: "a"}}}
	doc.Vision = append(doc.Vision, core.VisionItem{URL: "u"})

	clone := doc.Clone()
	clone.Calendar["2024-06-01"].Tasks[0].Completed = true
	clone.Vision[0].URL = "changed"

	assert.False(t, doc.Calendar["2024-06-01"].Tasks[0].Completed)
	assert.Equal(t, "u", doc.Vision[0].URL)
}

func TestDocument_EncodeTombstones(t *testing.T) {
	doc := core.NewDocument()
	doc.Calendar["2024-06-02"] = core.DayRecord{Diary: "kept"}

	data, err := doc.Encode("2024-06-01", "2024-06-02")
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"calendar": {
			"2024-06-01": null,
			"2024-06-02": {"tasks": [], "mood": null, "diary": "kept"}
		},
		"vision": []
	}`, string(data))
}

func TestMood_JSON(t *testing.T) {
	data, err := json.Marshal(core.DayRecord{Mood: core.MoodHappy})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tasks":[],"mood":"happy","diary":""}`, string(data))

	var rec core.DayRecord
	require.NoError(t, json.Unmarshal([]byte(`{"mood":null}`), &rec))
	assert.Equal(t, core.Mood(""), rec.Mood)
}

func TestMood_Glyph(t *testing.T) {
	assert.Equal(t, "😆", core.MoodHappy.Glyph())
	assert.Equal(t, "😡", core.MoodAngry.Glyph())
	assert.Equal(t, "", core.Mood("bored").Glyph())
	assert.False(t, core.Mood("bored").Valid())
	assert.Len(t, core.Moods, 5)
}

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	// 23:30 local is already the next day in UTC; the key follows the local date.
	ts := time.Date(2024, time.June, 1, 23, 30, 0, 0, loc)
	assert.Equal(t, "2024-06-01", core.DateKey(ts))

	parsed, err := core.ParseDateKey("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", core.DateKey(parsed))

	_, err = core.ParseDateKey("06/01/2024")
	assert.Error(t, err)
}

func TestRoomKey(t *testing.T) {
	key := core.RoomKey("  secret  ")
	assert.Equal(t, core.RoomKey("secret"), key)
	assert.Len(t, key, 64)
	assert.NotContains(t, key, "secret")
	assert.NotEqual(t, core.RoomKey("other"), key)
}
