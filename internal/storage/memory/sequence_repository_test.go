package memory_test

import (
	"testing"

	"github.com/vladislavdragonenkov/ams/internal/storage/memory"
)

func TestSequenceRepository_NextCurrent(t *testing.T) {
	seq := memory.NewSequenceRepository(memory.NewStore())

	current, err := seq.Current()
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if current != 0 {
		t.Fatalf("expected initial counter 0, got %d", current)
	}

	// Идентификаторы плотные: 1, 2, 3 без пропусков.
	for want := uint64(1); want <= 3; want++ {
		got, err := seq.Next()
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected id %d, got %d", want, got)
		}
	}

	current, err = seq.Current()
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if current != 3 {
		t.Fatalf("expected counter 3, got %d", current)
	}
}
