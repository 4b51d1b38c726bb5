package config

import "time"

// DefaultConfigDir is where the config file and history database live.
const DefaultConfigDir = "~/.config/siteinsight"

// DefaultDBName is the analysis history database file name.
const DefaultDBName = "siteinsight.db"

// EnvPrefix prefixes every environment override, e.g. SITEINSIGHT_SERVER_PORT.
const EnvPrefix = "SITEINSIGHT"

// DefaultServer holds the server role defaults.
var DefaultServer = Server{
	Host: "localhost",
	Port: 8000,
	Mode: "random",
	Seed: 0,
}

// DefaultClient holds the agent's HTTP client defaults. No retries: each
// request is sent exactly once.
var DefaultClient = Client{
	BaseURL: "",
	Timeout: 30 * time.Second,
	Retries: 0,
}

// DefaultAnalysis holds analysis defaults.
var DefaultAnalysis = Analysis{
	WindowDays:    30,
	Parallel:      false,
	TopPagesLimit: 10,
}

// DefaultLog holds logging defaults.
var DefaultLog = Log{
	Level:  "warn",
	Format: "text",
}

// DefaultOutput holds display defaults.
var DefaultOutput = Output{
	Color: true,
}

// DefaultWatch holds watch-mode defaults.
var DefaultWatch = Watch{
	Interval: 10 * time.Minute,
}
