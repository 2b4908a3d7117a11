package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                string  // path of the sqlite lap record database
	NatsURL           string  // URL of the NATS server, lap events are not published if empty
	NatsBestLaps      bool    // keep best laps in a jetstream key value bucket
	LogLevel          string  // sets the log level (zap log level values)
	LogFormat         string  // text vs json
	LogFilter         string  // zapfilter rules, e.g. "debug+:track.* info+:*"
	EnableTelemetry   bool    // enable telemetry
	TelemetryOutput   string  // file receiving telemetry data, stderr if empty
	TelemetryInterval string  // export interval for metrics
	Track             string  // nickname of a built-in track
	TrackFile         string  // path to a track description file, takes precedence over Track
	Frames            int     // number of frames to simulate
	FrameDuration     float32 // seconds per simulated frame
	GhostSpeed        float32 // centerline speed of ghost vehicles
	Ghosts            int     // number of ghost vehicles
	PreviewOut        string  // output file of the preview
	Centerline        bool    // draw the centerline in the preview
)
