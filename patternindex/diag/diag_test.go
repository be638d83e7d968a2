package diag

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorDisabledWithNilHandler(t *testing.T) {
	c := NewCollector(nil)
	c.Add(Event{Name: ScanBegin})
	assert.Empty(t, c.Events())
}

func TestCollectorRecordsAndDispatches(t *testing.T) {
	var seen []Event
	c := NewCollector(func(e Event) { seen = append(seen, e) })

	c.Add(Event{Name: ScanBegin, Data: map[string]interface{}{"descriptor": "x"}})
	c.AddTiming(ScanComplete, time.Now().Add(-time.Millisecond), map[string]interface{}{"rows": 7})

	assert.Len(t, c.Events(), 2)
	assert.Len(t, seen, 2)
	assert.Equal(t, ScanComplete, seen[1].Name)
}

func TestOutputFormatterPlainText(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter(&buf)

	f.Handle(Event{Name: CacheHit, Data: map[string]interface{}{"key": "HAS_PREDICATE_SCAN with O = 3"}})
	assert.Contains(t, buf.String(), "cache hit")
	assert.Contains(t, buf.String(), "HAS_PREDICATE_SCAN with O = 3")
}
