package magsci

import "testing"

func TestNewModeConfig(t *testing.T) {
	cfg, err := NewModeConfig(ModeBurst128, -1)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Apid != ApidScienceBurst {
		t.Errorf("apid = %#x, want %#x", cfg.Apid, ApidScienceBurst)
	}
	if cfg.PrimaryRate != 128 || cfg.SecondaryRate != 128 {
		t.Errorf("rates = (%v,%v), want (128,128)", cfg.PrimaryRate, cfg.SecondaryRate)
	}
	if cfg.SecondsPerPacket != 2 {
		t.Errorf("SecondsPerPacket = %d, want 2", cfg.SecondsPerPacket)
	}
	if cfg.PrimaryVectorsPerPacket != 256 || cfg.SecondaryVectorsPerPacket != 256 {
		t.Errorf("vectors per packet = (%d,%d), want (256,256)", cfg.PrimaryVectorsPerPacket, cfg.SecondaryVectorsPerPacket)
	}
	if cfg.Tolerance != DefaultToleranceScience {
		t.Errorf("Tolerance = %v, want default %v", cfg.Tolerance, DefaultToleranceScience)
	}
}

func TestNewModeConfigIAlirtDefaultTolerance(t *testing.T) {
	cfg, err := NewModeConfig(ModeIAlirt, -1)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tolerance != DefaultToleranceIALiRT {
		t.Errorf("Tolerance = %v, want %v", cfg.Tolerance, DefaultToleranceIALiRT)
	}
}

func TestNewModeConfigToleranceOverride(t *testing.T) {
	cfg, err := NewModeConfig(ModeNormalE8, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tolerance != 0.25 {
		t.Errorf("Tolerance = %v, want 0.25", cfg.Tolerance)
	}
}

func TestNewModeConfigInvalidTolerance(t *testing.T) {
	if _, err := NewModeConfig(ModeNormalE8, -2); err != ErrInvalidTolerance {
		t.Errorf("err = %v, want ErrInvalidTolerance", err)
	}
}

func TestNewModeConfigUnknownMode(t *testing.T) {
	if _, err := NewModeConfig(Mode("bogus"), -1); err != ErrUnknownMode {
		t.Errorf("err = %v, want ErrUnknownMode", err)
	}
}

func TestModeConfigFromFilename(t *testing.T) {
	name := "MAGScience-normalE8-(2,2)-3600s-20260101-00h00m00s.csv"
	cfg, err := ModeConfigFromFilename(name)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeNormalE8 || cfg.PrimaryRate != 2 || cfg.SecondaryRate != 2 || cfg.SecondsPerPacket != 3600 {
		t.Errorf("parsed config = %+v, unexpected", cfg)
	}
}

func TestModeConfigFromFilenameCaseInsensitive(t *testing.T) {
	name := "magscience-BURST128-(128,128)-2s-20260101-00h00m00s.csv"
	cfg, err := ModeConfigFromFilename(name)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeBurst128 {
		t.Errorf("mode = %q, want %q", cfg.Mode, ModeBurst128)
	}
}

func TestModeConfigFromFilenameNotParsable(t *testing.T) {
	if _, err := ModeConfigFromFilename("not-a-magscience-file.csv"); err != ErrFilenameNotParsable {
		t.Errorf("err = %v, want ErrFilenameNotParsable", err)
	}
}
