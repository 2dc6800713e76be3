package benchcore

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig.Validate(); err != nil {
		t.Fatalf("DefaultConfig.Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsOutOfRangeFields(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"confidence_level=0", DefaultConfig.Override(func(c *Config) { c.ConfidenceLevel = 0 })},
		{"confidence_level=1", DefaultConfig.Override(func(c *Config) { c.ConfidenceLevel = 1 })},
		{"significance_level=0", DefaultConfig.Override(func(c *Config) { c.SignificanceLevel = 0 })},
		{"noise_threshold<0", DefaultConfig.Override(func(c *Config) { c.NoiseThreshold = -0.01 })},
		{"nresamples=0", DefaultConfig.Override(func(c *Config) { c.NResamples = 0 })},
		{"sample_size<10", DefaultConfig.Override(func(c *Config) { c.SampleSize = 9 })},
		{"warm_up_time<=0", DefaultConfig.Override(func(c *Config) { c.WarmUpTime = 0 })},
		{"measurement_time<=0", DefaultConfig.Override(func(c *Config) { c.MeasurementTime = 0 })},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.cfg.Validate(); err == nil {
				t.Errorf("Validate() = nil, want %v", ErrConfigOutOfRange)
			}
		})
	}
}

func TestOverrideDoesNotMutateReceiver(t *testing.T) {
	base := DefaultConfig
	overridden := base.Override(func(c *Config) { c.SampleSize = 500 })
	if base.SampleSize == 500 {
		t.Error("Override mutated the receiver")
	}
	if overridden.SampleSize != 500 {
		t.Errorf("overridden.SampleSize = %d, want 500", overridden.SampleSize)
	}
}

func TestScheduleProjection(t *testing.T) {
	sched := DefaultConfig.Schedule()
	if sched.SampleSize != DefaultConfig.SampleSize {
		t.Errorf("Schedule().SampleSize = %d, want %d", sched.SampleSize, DefaultConfig.SampleSize)
	}
	if sched.QuickModeThreshold != DefaultConfig.SignificanceLevel {
		t.Errorf("Schedule().QuickModeThreshold = %v, want %v", sched.QuickModeThreshold, DefaultConfig.SignificanceLevel)
	}
}
