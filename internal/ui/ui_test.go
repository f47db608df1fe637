package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestResult_DetailsInOrder(t *testing.T) {
	out := NewSuccessResult("Climate updated",
		Detail{Key: "Device", Value: "Living Room"},
		Detail{Key: "Mode", Value: "cool"},
		Detail{Key: "Command", Value: "040100dc0400000ff000"},
	).SetWidth(80).Render()

	device := strings.Index(out, "Living Room")
	mode := strings.Index(out, "cool")
	command := strings.Index(out, "040100dc0400000ff000")
	if device < 0 || mode < 0 || command < 0 {
		t.Fatalf("rendered result missing details:\n%s", out)
	}
	if !(device < mode && mode < command) {
		t.Errorf("details not rendered in insertion order:\n%s", out)
	}
	if !strings.Contains(out, "SUCCESS") {
		t.Error("success box should contain SUCCESS")
	}
}

func TestResult_Failure(t *testing.T) {
	out := NewFailureResult("Login failed", errors.New("session expired"), []string{"Run 'sabiana login'"}).
		SetWidth(80).
		Render()

	for _, want := range []string{"FAILED", "session expired", "Troubleshooting", "sabiana login"} {
		if !strings.Contains(out, want) {
			t.Errorf("failure box missing %q:\n%s", want, out)
		}
	}
}

func TestHeader_Render(t *testing.T) {
	out := NewHeader("set climate", "sabiana set d1", Detail{Key: "Device", Value: "d1"}).SetWidth(70).Render()

	if !strings.Contains(out, "SET CLIMATE") {
		t.Errorf("header should uppercase the title:\n%s", out)
	}
	if !strings.Contains(out, "sabiana set d1") || !strings.Contains(out, "Device:") {
		t.Errorf("header missing command or params:\n%s", out)
	}
}

func TestProgress_Update(t *testing.T) {
	p := NewProgress("Turning off", []string{"Living Room", "Bedroom"})

	if got := p.Percent(); got != 0 {
		t.Errorf("Percent() = %v, want 0", got)
	}

	line := p.Update(1, StepComplete, "mode=off")
	if !strings.Contains(line, "Living Room") || !strings.Contains(line, StepMarkerComplete) {
		t.Errorf("step line = %q", line)
	}
	p.Update(2, StepFailed, "not acknowledged")

	if got := p.Percent(); got != 1 {
		t.Errorf("Percent() = %v, want 1", got)
	}
	if p.Update(3, StepComplete, "") != "" {
		t.Error("out of range step should be ignored")
	}

	steps := p.Steps()
	if steps[1].Status != StepFailed || steps[1].Message != "not acknowledged" {
		t.Errorf("step 2 = %+v", steps[1])
	}
	if !strings.Contains(p.Render(), "100%") {
		t.Errorf("render should show 100%%:\n%s", p.Render())
	}
}

func TestRunner_Run(t *testing.T) {
	var buf bytes.Buffer
	r := NewRunner(RunnerConfig{
		Title:     "Turn Off",
		Command:   "sabiana off --all",
		StepNames: []string{"Living Room"},
		Output:    &buf,
	})

	err := r.Run(func(onStep StepCallback) ([]Detail, error) {
		onStep(1, StepRunning, "")
		onStep(1, StepComplete, "mode=off")
		return []Detail{{Key: "Devices", Value: "1"}}, nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"TURN OFF", "Living Room", "mode=off", "Turn Off complete", "Duration"} {
		if !strings.Contains(out, want) {
			t.Errorf("runner output missing %q:\n%s", want, out)
		}
	}
}

func TestRunner_Failure(t *testing.T) {
	var buf bytes.Buffer
	r := NewRunner(RunnerConfig{Title: "Turn Off", Output: &buf, Troubleshooting: []string{"check the device id"}})

	wantErr := errors.New("boom")
	if err := r.Run(func(StepCallback) ([]Detail, error) { return nil, wantErr }); err != wantErr {
		t.Errorf("Run() error = %v, want %v", err, wantErr)
	}
	if !strings.Contains(buf.String(), "check the device id") {
		t.Errorf("failure output missing troubleshooting:\n%s", buf.String())
	}
}

func TestPrompter_Line(t *testing.T) {
	var out bytes.Buffer
	p := &Prompter{In: strings.NewReader("  user@example.com \nsecret\n\n"), Out: &out}

	email, err := p.Line("Email")
	if err != nil || email != "user@example.com" {
		t.Errorf("Line() = %q, %v", email, err)
	}

	password, err := p.Password("Password")
	if err != nil || password != "secret" {
		t.Errorf("Password() = %q, %v", password, err)
	}

	if _, err := p.Line("Email"); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Line() on empty input error = %v, want ErrEmptyInput", err)
	}
}

func TestPrompter_Confirm(t *testing.T) {
	var out bytes.Buffer

	p := &Prompter{In: strings.NewReader("YES\n"), Out: &out}
	if !p.Confirm("Turn off all devices", []string{"3 devices will be switched off"}) {
		t.Error("Confirm() should accept yes")
	}

	p = &Prompter{In: strings.NewReader("no\n"), Out: &out}
	if p.Confirm("Turn off all devices", nil) {
		t.Error("Confirm() should reject no")
	}
}

func TestRenderDeviceCompact(t *testing.T) {
	out := RenderDeviceCompact([]DeviceRow{
		{ID: "d1", Name: "Living Room", Settings: "mode=cool"},
		{ID: "device-22", Name: "Bedroom"},
	})

	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "d1         Living Room") {
		t.Errorf("line 1 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "-") {
		t.Errorf("device without settings should show '-': %q", lines[1])
	}
}

func TestRenderDeviceList_Empty(t *testing.T) {
	if out := RenderDeviceList(nil, 80); !strings.Contains(out, "No devices") {
		t.Errorf("empty listing = %q", out)
	}
}
