package lifecycle

import (
	"context"
	"errors"
	"testing"
)

type probe struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
}

func (p *probe) Name() string { return p.name }

func (p *probe) Start(context.Context) error {
	*p.log = append(*p.log, "start:"+p.name)
	return p.startErr
}

func (p *probe) Stop(context.Context) error {
	*p.log = append(*p.log, "stop:"+p.name)
	return p.stopErr
}

func TestStartStopOrder(t *testing.T) {
	var log []string
	m := New()
	m.Add(&probe{name: "a", log: &log})
	m.Add(&probe{name: "b", log: &log})

	if err := m.StartAll(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.StopAll(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start:a", "start:b", "stop:b", "stop:a"}
	if len(log) != len(want) {
		t.Fatalf("log = %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log[%d] = %s, want %s", i, log[i], want[i])
		}
	}
}

func TestStartFailureUnwindsStarted(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	m := New()
	m.Add(&probe{name: "a", log: &log})
	m.Add(&probe{name: "b", startErr: boom, log: &log})
	m.Add(&probe{name: "c", log: &log})

	if err := m.StartAll(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	want := []string{"start:a", "start:b", "stop:a"}
	if len(log) != len(want) {
		t.Fatalf("log = %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log[%d] = %s, want %s", i, log[i], want[i])
		}
	}
}

func TestStopCollectsErrors(t *testing.T) {
	var log []string
	e1, e2 := errors.New("one"), errors.New("two")
	m := New()
	m.Add(&probe{name: "a", stopErr: e1, log: &log})
	m.Add(&probe{name: "b", stopErr: e2, log: &log})

	err := m.StopAll(context.Background())
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("errors not collected: %v", err)
	}
}
