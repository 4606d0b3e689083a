package config

// Kilnfile is the on-disk shape of kiln.yaml.
type Kilnfile struct {
	Source        string            `yaml:"source"`
	Prefix        string            `yaml:"prefix"`
	Analyzer      string            `yaml:"analyzer"`
	OptRoot       string            `yaml:"opt_root"`
	Locations     map[string]string `yaml:"locations"`
	Jobs          int               `yaml:"jobs"`
	Timeouts      TimeoutsDTO       `yaml:"timeouts"`
	ParallelTests int               `yaml:"parallel_tests"`
}

// TimeoutsDTO holds durations as written by the user, e.g. "45m".
type TimeoutsDTO struct {
	Step string `yaml:"step"`
	Test string `yaml:"test"`
}
