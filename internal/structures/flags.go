package structures

// CliFlags are the command line options of the server binary.
type CliFlags struct {
	ConfigPath string `name:"config" short:"c" help:"Path to the YAML config file." default:"config.yaml" type:"path"`
	DebugMode  bool   `name:"debug" short:"d" help:"Log to the console as well as to files."`
}
