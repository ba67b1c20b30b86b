package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp wraps time.Time so it serializes as the {_seconds,_nanoseconds}
// pair the web client already consumes.
type Timestamp struct {
	time.Time
}

func Now() Timestamp {
	return Timestamp{time.Now().UTC()}
}

// FromMillis converts a unix-milliseconds value (the format stored in the
// search index) back into a Timestamp.
func FromMillis(ms int64) Timestamp {
	return Timestamp{time.UnixMilli(ms).UTC()}
}

func (t Timestamp) Millis() int64 {
	return t.UnixMilli()
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Seconds     int64 `json:"_seconds"`
		Nanoseconds int   `json:"_nanoseconds"`
	}{t.Unix(), t.Nanosecond()})
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var pair struct {
		Seconds     int64 `json:"_seconds"`
		Nanoseconds int64 `json:"_nanoseconds"`
	}
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	t.Time = time.Unix(pair.Seconds, pair.Nanoseconds).UTC()
	return nil
}

func (t Timestamp) Value() (driver.Value, error) {
	return t.Time, nil
}

func (t *Timestamp) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", value)
	}
}

func (Timestamp) GormDataType() string {
	return "timestamptz"
}
