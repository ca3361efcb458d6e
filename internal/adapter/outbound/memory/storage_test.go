package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/feastflow/storefront/internal/port/outbound"
)

func TestStorage_SetGetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStorage()

	if _, err := s.Get(ctx, outbound.KeyCart); !errors.Is(err, outbound.ErrNotFound) {
		t.Fatalf("Get() on empty = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, outbound.KeyCart, []byte(`[]`)); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err := s.Get(ctx, outbound.KeyCart)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("Get() = %q, want %q", got, `[]`)
	}

	if err := s.Delete(ctx, outbound.KeyCart); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if s.Has(outbound.KeyCart) {
		t.Error("key should be gone after Delete()")
	}
	if err := s.Delete(ctx, outbound.KeyCart); err != nil {
		t.Errorf("Delete() of missing key = %v, want nil", err)
	}
}

func TestStorage_ValuesAreCopied(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStorage()
	buf := []byte("abc")
	_ = s.Set(ctx, "k", buf)
	buf[0] = 'x'

	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value changed through caller slice: %q", got)
	}
	got[0] = 'y'
	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value changed through returned slice: %q", again)
	}
}

func TestStorage_FailWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStorage()
	_ = s.Set(ctx, "k", []byte("v"))
	s.FailWrites(true)

	if err := s.Set(ctx, "k", []byte("w")); !errors.Is(err, ErrInjected) {
		t.Errorf("Set() = %v, want ErrInjected", err)
	}
	got, _ := s.Get(ctx, "k")
	if string(got) != "v" {
		t.Errorf("value = %q, want unchanged", got)
	}
	if s.Writes() != 1 {
		t.Errorf("Writes() = %d, want 1", s.Writes())
	}
}

func TestStorage_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStorage()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Set(ctx, "k", []byte("v"))
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Get(ctx, "k")
		}()
	}
	wg.Wait()
	if s.Writes() != 50 {
		t.Errorf("Writes() = %d, want 50", s.Writes())
	}
}
