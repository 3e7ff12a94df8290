package systems

import "testing"

func TestSetScreenTextKeepsMessageWithinDuration(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	rig.frame.SetScreenText("first", 0, 0, 1000, false)
	rig.clock.advance(500)
	rig.frame.SetScreenText("second", 0, 0, 1000, false)
	if got := rig.frame.ScreenText(0); got != "first" {
		t.Errorf("ScreenText(0) = %q, expected %q", got, "first")
	}

	rig.clock.advance(501)
	rig.frame.SetScreenText("second", 0, 0, 1000, false)
	if got := rig.frame.ScreenText(0); got != "second" {
		t.Errorf("ScreenText(0) = %q, expected %q", got, "second")
	}
}

func TestSetScreenTextWithoutDurationIsReplaced(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	rig.frame.SetScreenText("first", 1, 0, 0, false)
	rig.clock.advance(1)
	rig.frame.SetScreenText("second", 1, 0, 0, false)
	if got := rig.frame.ScreenText(1); got != "second" {
		t.Errorf("ScreenText(1) = %q, expected %q", got, "second")
	}
}

func TestSetScreenTextOutOfRange(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	rig.frame.SetScreenText("nobody", MaxScreenCount, 0, 0, false)
	rig.frame.SetScreenText("nobody", -1, 0, 0, false)
	for screen := 0; screen < MaxScreenCount; screen++ {
		if got := rig.frame.ScreenText(screen); got != "" {
			t.Errorf("ScreenText(%d) = %q, expected empty", screen, got)
		}
	}
	if got := rig.frame.ScreenText(MaxScreenCount); got != "" {
		t.Errorf("ScreenText(%d) = %q, expected empty", MaxScreenCount, got)
	}
}

func TestClearScreenText(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	rig.frame.SetScreenText("locked", 0, 0, 5000, false)
	rig.frame.ClearScreenText(0)
	if got := rig.frame.ScreenText(0); got != "" {
		t.Errorf("ScreenText(0) after clear = %q, expected empty", got)
	}
	rig.frame.SetScreenText("next", 0, 0, 0, false)
	if got := rig.frame.ScreenText(0); got != "next" {
		t.Errorf("ScreenText(0) = %q, expected %q", got, "next")
	}
}

func TestScreenTextBlinks(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	rig.frame.SetScreenText("blink", 0, 100, 0, false)
	text := &rig.frame.screenText[0]

	tests := []struct {
		advance  int
		expected bool
	}{
		{50, true},
		{100, false},
		{100, true},
	}
	elapsed := 0
	for _, tt := range tests {
		rig.clock.advance(tt.advance)
		elapsed += tt.advance
		if got := text.visible(); got != tt.expected {
			t.Errorf("visible() at %dms = %v, expected %v", elapsed, got, tt.expected)
		}
	}
}

func TestScreenTextExpires(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	rig.frame.SetScreenText("brief", 0, 0, 1000, false)
	text := &rig.frame.screenText[0]
	rig.clock.advance(1000)
	if !text.visible() {
		t.Errorf("visible() at 1000ms = false, expected true")
	}
	rig.clock.advance(1)
	if text.visible() {
		t.Errorf("visible() at 1001ms = true, expected false")
	}
}

func TestScreenTextIsDrawn(t *testing.T) {
	rig := newTestRig(t, 64, 48, nil)
	rig.frame.SetScreenText("HELLO", 0, 0, 0, false)
	rig.drawFrame()

	lit := 0
	backbuffer := rig.device.Backbuffer()
	for y := screenTextMargin; y < screenTextMargin+13; y++ {
		for x := 10; x < 40; x++ {
			if backbuffer.RGBAAt(x, y).R > 0x80 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Errorf("no text pixels found on the backbuffer")
	}
	if got := backbuffer.RGBAAt(60, 40); got.R != 0 {
		t.Errorf("backbuffer(60,40) = %v, expected untouched black", got)
	}
}
