package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/telemetryhub/relay/internal/domain"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Priority
		wantErr bool
	}{
		{"critical", domain.PriorityCritical, false},
		{"high", domain.PriorityHigh, false},
		{"normal", domain.PriorityNormal, false},
		{"urgent", 0, true},
		{"", 0, true},
		{"CRITICAL", 0, true},
	}

	for _, tt := range tests {
		got, err := domain.ParsePriority(tt.in)
		if tt.wantErr {
			if err != domain.ErrInvalidPriority {
				t.Errorf("ParsePriority(%q): expected ErrInvalidPriority, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParsePriority(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestPriority_Ordering(t *testing.T) {
	if !(domain.PriorityCritical < domain.PriorityHigh && domain.PriorityHigh < domain.PriorityNormal) {
		t.Fatal("priority ordinals must order critical < high < normal")
	}
}

func TestPriority_IsValid(t *testing.T) {
	for _, p := range []domain.Priority{domain.PriorityCritical, domain.PriorityHigh, domain.PriorityNormal} {
		if !p.IsValid() {
			t.Errorf("expected %d to be valid", p)
		}
	}
	for _, p := range []domain.Priority{0, 4, -1} {
		if p.IsValid() {
			t.Errorf("expected %d to be invalid", p)
		}
	}
}

func TestEnqueueRequest_Validate(t *testing.T) {
	valid := domain.EnqueueRequest{
		Data:     json.RawMessage(`{"metric":"cpu","value":0.92}`),
		Priority: "normal",
	}

	t.Run("valid request passes", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("missing data", func(t *testing.T) {
		r := valid
		r.Data = nil
		if err := r.Validate(); err != domain.ErrMissingData {
			t.Fatalf("expected ErrMissingData, got %v", err)
		}
	})

	t.Run("null data", func(t *testing.T) {
		r := valid
		r.Data = json.RawMessage("null")
		if err := r.Validate(); err != domain.ErrMissingData {
			t.Fatalf("expected ErrMissingData, got %v", err)
		}
	})

	t.Run("invalid priority", func(t *testing.T) {
		r := valid
		r.Priority = "urgent"
		if err := r.Validate(); err != domain.ErrInvalidPriority {
			t.Fatalf("expected ErrInvalidPriority, got %v", err)
		}
	})
}

// TestEvent_PersistedShape pins the five-field wire format: a change here
// means stored queues from older builds will be dropped by the load-time
// validator.
func TestEvent_PersistedShape(t *testing.T) {
	ev := domain.Event{
		ID:        "abc",
		Timestamp: 1700000000000,
		Data:      json.RawMessage(`{"k":1}`),
		Priority:  domain.PriorityCritical,
		Retries:   2,
	}

	blob, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(blob, &fields); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"id", "timestamp", "data", "priority", "retries"} {
		if _, ok := fields[k]; !ok {
			t.Errorf("missing persisted field %q", k)
		}
	}
	if len(fields) != 5 {
		t.Fatalf("expected exactly 5 persisted fields, got %d", len(fields))
	}
}
