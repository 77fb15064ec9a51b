// Package core holds the planner domain (room documents, day records, moods)
// and the contracts every document store adapter implements.
package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the layout of calendar keys (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Mood is the feeling recorded for a day. The zero value means "no mood".
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodTired   Mood = "tired"
	MoodSad     Mood = "sad"
	MoodAngry   Mood = "angry"
)

// Moods lists the valid moods in selector order.
var Moods = []Mood{MoodHappy, MoodNeutral, MoodTired, MoodSad, MoodAngry}

var moodGlyphs = map[Mood]string{
	MoodHappy:   "😆",
	MoodNeutral: "😐",
	MoodTired:   "😴",
	MoodSad:     "😢",
	MoodAngry:   "😡",
}

// Valid reports whether m is one of the five known moods.
func (m Mood) Valid() bool {
	_, ok := moodGlyphs[m]
	return ok
}

// Glyph returns the emoji shown for m, or "" for unknown or empty moods.
func (m Mood) Glyph() string {
	return moodGlyphs[m]
}

// MarshalJSON encodes the empty mood as null so that a merge write clears it.
func (m Mood) MarshalJSON() ([]byte, error) {
	if m == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(m))
}

// UnmarshalJSON accepts null as the empty mood.
func (m *Mood) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid mood: %w", err)
	}
	*m = Mood(s)
	return nil
}

// Task is a single to-do entry of a day.
type Task struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// DayRecord holds everything recorded for one calendar day.
type DayRecord struct {
	Tasks []Task `json:"tasks"`
	Mood  Mood   `json:"mood"`
	Diary string `json:"diary"`
}

// IsEmpty reports whether the record carries no data at all.
func (r DayRecord) IsEmpty() bool {
	return len(r.Tasks) == 0 && r.Mood == "" && r.Diary == ""
}

// MarshalJSON always emits tasks as an array, never null.
func (r DayRecord) MarshalJSON() ([]byte, error) {
	type plain DayRecord
	if r.Tasks == nil {
		r.Tasks = []Task{}
	}
	return json.Marshal(plain(r))
}

func (r DayRecord) clone() DayRecord {
	out := r
	out.Tasks = make([]Task, len(r.Tasks))
	copy(out.Tasks, r.Tasks)
	return out
}

// VisionItem is one image of the vision board.
type VisionItem struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// Document is the room document: the whole shared state of a room.
type Document struct {
	Calendar map[string]DayRecord `json:"calendar"`
	Vision   []VisionItem         `json:"vision"`
}

// NewDocument returns the default empty document ({calendar: {}, vision: []}).
func NewDocument() *Document {
	return &Document{
		Calendar: make(map[string]DayRecord),
		Vision:   []VisionItem{},
	}
}

// Normalize replaces nil collections with empty ones so that a decoded
// document is always fully materialized.
func (d *Document) Normalize() {
	if d.Calendar == nil {
		d.Calendar = make(map[string]DayRecord)
	}
	if d.Vision == nil {
		d.Vision = []VisionItem{}
	}
	for key, rec := range d.Calendar {
		if rec.Tasks == nil {
			rec.Tasks = []Task{}
			d.Calendar[key] = rec
		}
	}
}

// Day returns the record for key, or an empty record when none exists.
// Absence of a key is equivalent to an empty record.
func (d *Document) Day(key string) DayRecord {
	if rec, ok := d.Calendar[key]; ok {
		return rec
	}
	return DayRecord{Tasks: []Task{}}
}

// EnsureDay creates the record for key on first mutation and returns it.
func (d *Document) EnsureDay(key string) DayRecord {
	if d.Calendar == nil {
		d.Calendar = make(map[string]DayRecord)
	}
	rec, ok := d.Calendar[key]
	if !ok {
		rec = DayRecord{Tasks: []Task{}}
		d.Calendar[key] = rec
	}
	return rec
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Calendar: make(map[string]DayRecord, len(d.Calendar)),
		Vision:   make([]VisionItem, len(d.Vision)),
	}
	for k, rec := range d.Calendar {
		out.Calendar[k] = rec.clone()
	}
	copy(out.Vision, d.Vision)
	return out
}

// DecodeDocument parses a stored document. Empty input yields the default document.
func DecodeDocument(data []byte) (*Document, error) {
	doc := NewDocument()
	if len(data) == 0 || string(data) == "null" {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to decode room document: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

// Encode serializes the full document. Date keys listed in tombstones are
// emitted as null so that a merge write removes them from the stored copy.
func (d *Document) Encode(tombstones ...string) ([]byte, error) {
	calendar := make(map[string]any, len(d.Calendar)+len(tombstones))
	for k, rec := range d.Calendar {
		calendar[k] = rec
	}
	for _, k := range tombstones {
		if _, ok := d.Calendar[k]; !ok {
			calendar[k] = nil
		}
	}
	vision := d.Vision
	if vision == nil {
		vision = []VisionItem{}
	}
	return json.Marshal(map[string]any{
		"calendar": calendar,
		"vision":   vision,
	})
}

// DateKey returns the calendar date portion of t as YYYY-MM-DD, in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey parses a YYYY-MM-DD key as local midnight.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}
