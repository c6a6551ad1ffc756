// Command cadence is the CLI tool for the Cadence sequence matching engine.
// It evaluates patterns against token streams, manages the stored pattern
// library, and runs the REST/WebSocket API server.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/Cadence/core/library"
	"github.com/FocuswithJustin/Cadence/core/match"
	"github.com/FocuswithJustin/Cadence/core/pattern"
	"github.com/FocuswithJustin/Cadence/internal/api"
	"github.com/FocuswithJustin/Cadence/internal/logging"
	"github.com/FocuswithJustin/Cadence/internal/tokenize"
)

const version = "1.0.0"

// CLI defines the command-line interface for cadence.
var CLI struct {
	// Global flags
	DB        string `name:"db" help:"Pattern library path" default:"./patterns.db" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn" enum:"debug,info,warn,error"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"text" enum:"text,json"`

	Check   CheckCmd     `cmd:"" help:"Match a pattern against a token stream"`
	Tokens  TokensCmd    `cmd:"" help:"Show how input splits into tokens"`
	Library LibraryGroup `cmd:"" help:"Stored pattern operations (add, list, show, rm, export, import)"`
	Serve   ServeCmd     `cmd:"" help:"Start REST/WebSocket API server"`
	Version VersionCmd   `cmd:"" help:"Print version information"`
}

// LibraryGroup contains pattern library operations.
type LibraryGroup struct {
	Add    LibAddCmd    `cmd:"" help:"Store a named pattern"`
	List   LibListCmd   `cmd:"" help:"List stored patterns"`
	Show   LibShowCmd   `cmd:"" help:"Show a stored pattern"`
	Rm     LibRmCmd     `cmd:"" help:"Remove a stored pattern"`
	Export LibExportCmd `cmd:"" help:"Export the library to a tar.xz archive"`
	Import LibImportCmd `cmd:"" help:"Import patterns from a tar.xz archive"`
}

// openLibrary opens the pattern library named by the global --db flag.
func openLibrary() (*library.Library, error) {
	lib, err := library.Open(CLI.DB)
	if err != nil {
		return nil, fmt.Errorf("opening library %s: %w", CLI.DB, err)
	}
	return lib, nil
}

// compilePattern compiles an inline source, or a stored pattern when src has
// the form @name.
func compilePattern(src string) (match.Matcher[any], error) {
	if name, ok := strings.CutPrefix(src, "@"); ok {
		lib, err := openLibrary()
		if err != nil {
			return nil, err
		}
		defer lib.Close()
		return lib.Compile(name)
	}
	return pattern.Compile(src)
}

// readInput reads the token input from a file, or stdin when path is empty.
func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// splitTokens applies the named tokenizer to raw input.
func splitTokens(data []byte, tokenizer, xpath string) ([]any, error) {
	switch tokenizer {
	case "fields":
		return tokenize.Fields(string(data)), nil
	case "lines":
		return tokenize.Lines(string(data)), nil
	case "json":
		return tokenize.JSONArray(data)
	case "xml-names":
		return tokenize.XMLNames(data)
	case "xml-text":
		return tokenize.XMLText(data, xpath)
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", tokenizer)
	}
}

// CheckCmd matches a pattern against tokens read from a file or stdin.
type CheckCmd struct {
	Pattern   string `arg:"" help:"Pattern source, or @name for a stored pattern"`
	Input     string `help:"Input file (default: stdin)" type:"existingfile"`
	Tokenizer string `help:"Tokenizer: fields, lines, json, xml-names, xml-text" default:"fields"`
	XPath     string `help:"XPath expression for the xml-text tokenizer" default:"//*"`
	Trace     bool   `help:"Print the verdict after every token"`
	Quiet     bool   `short:"q" help:"Suppress output; the exit status reports the verdict"`
}

func (c *CheckCmd) Run() error {
	m, err := compilePattern(c.Pattern)
	if err != nil {
		return err
	}
	data, err := readInput(c.Input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	tokens, err := splitTokens(data, c.Tokenizer, c.XPath)
	if err != nil {
		return err
	}

	session, err := match.NewSession(m)
	if err != nil {
		return err
	}
	for i, tok := range tokens {
		v, err := session.Feed(tok)
		if err != nil {
			return fmt.Errorf("token %d (%v): %w", i+1, tok, err)
		}
		if c.Trace && !c.Quiet {
			fmt.Printf("%4d  %-12v %s\n", i+1, tok, v)
		}
	}

	v := session.Verdict()
	if !c.Quiet {
		fmt.Printf("Tokens:  %d\n", len(tokens))
		fmt.Printf("Verdict: %s\n", v)
		if n := session.PathCount(); n > 0 {
			fmt.Printf("Paths:   %d\n", n)
		}
	}
	if !v.IsMatching() {
		return fmt.Errorf("sequence does not match")
	}
	return nil
}

// TokensCmd shows the token stream a tokenizer produces.
type TokensCmd struct {
	Input     string `help:"Input file (default: stdin)" type:"existingfile"`
	Tokenizer string `help:"Tokenizer: fields, lines, json, xml-names, xml-text" default:"fields"`
	XPath     string `help:"XPath expression for the xml-text tokenizer" default:"//*"`
}

func (c *TokensCmd) Run() error {
	data, err := readInput(c.Input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	tokens, err := splitTokens(data, c.Tokenizer, c.XPath)
	if err != nil {
		return err
	}
	for i, tok := range tokens {
		fmt.Printf("%4d  %-8T %v\n", i+1, tok, tok)
	}
	return nil
}

// LibAddCmd stores a named pattern.
type LibAddCmd struct {
	Name   string `arg:"" help:"Pattern name"`
	Source string `arg:"" optional:"" help:"Pattern source (omit to read from --file)"`
	File   string `help:"Read the pattern source from a file" type:"existingfile"`
}

func (c *LibAddCmd) Run() error {
	source := c.Source
	if source == "" {
		if c.File == "" {
			return fmt.Errorf("provide a pattern source or --file")
		}
		data, err := os.ReadFile(c.File)
		if err != nil {
			return fmt.Errorf("reading pattern file: %w", err)
		}
		source = strings.TrimSpace(string(data))
	}

	lib, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	p, err := lib.Add(c.Name, source)
	if err != nil {
		return err
	}
	fmt.Printf("Added: %s\n", p.Name)
	fmt.Printf("  ID:     %s\n", p.ID)
	fmt.Printf("  Digest: %s\n", p.Digest)
	return nil
}

// LibListCmd lists stored patterns.
type LibListCmd struct{}

func (c *LibListCmd) Run() error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	patterns, err := lib.List()
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		fmt.Println("No patterns stored.")
		return nil
	}
	fmt.Printf("%-24s %-16s %s\n", "NAME", "DIGEST", "CREATED")
	for _, p := range patterns {
		fmt.Printf("%-24s %-16s %s\n", p.Name, p.Digest[:16], p.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// LibShowCmd shows one stored pattern.
type LibShowCmd struct {
	Name string `arg:"" help:"Pattern name"`
}

func (c *LibShowCmd) Run() error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	p, err := lib.Get(c.Name)
	if err != nil {
		return err
	}
	fmt.Printf("Name:    %s\n", p.Name)
	fmt.Printf("ID:      %s\n", p.ID)
	fmt.Printf("Digest:  %s\n", p.Digest)
	fmt.Printf("Created: %s\n", p.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Source:  %s\n", p.Source)
	return nil
}

// LibRmCmd removes a stored pattern.
type LibRmCmd struct {
	Name string `arg:"" help:"Pattern name"`
}

func (c *LibRmCmd) Run() error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	if err := lib.Remove(c.Name); err != nil {
		return err
	}
	fmt.Printf("Removed: %s\n", c.Name)
	return nil
}

// LibExportCmd exports the library to a tar.xz archive.
type LibExportCmd struct {
	Out string `arg:"" help:"Output archive path" type:"path"`
}

func (c *LibExportCmd) Run() error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	if err := lib.Export(c.Out); err != nil {
		return err
	}
	fmt.Printf("Exported library to %s\n", c.Out)
	return nil
}

// LibImportCmd imports patterns from a tar.xz archive.
type LibImportCmd struct {
	Archive string `arg:"" help:"Archive to import" type:"existingfile"`
}

func (c *LibImportCmd) Run() error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	n, err := lib.Import(c.Archive)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d pattern(s) from %s\n", n, c.Archive)
	return nil
}

// ServeCmd starts the REST/WebSocket API server.
type ServeCmd struct {
	Port           int           `help:"HTTP server port" default:"8080"`
	Origins        []string      `help:"Allowed CORS/WebSocket origins (default: allow all)"`
	RateLimit      int           `help:"Requests per minute per IP (0 = disabled)" default:"0"`
	RateBurst      int           `help:"Rate limit burst size" default:"10"`
	APIKey         string        `help:"Require this API key on requests" env:"CADENCE_API_KEY"`
	TLSCert        string        `help:"TLS certificate file" type:"existingfile"`
	TLSKey         string        `help:"TLS private key file" type:"existingfile"`
	MaxSessions    int           `help:"Concurrent session cap" default:"1024"`
	SessionTimeout time.Duration `help:"Idle session eviction" default:"30m"`
}

func (c *ServeCmd) Run() error {
	cfg := api.Config{
		Port:              c.Port,
		LibraryPath:       CLI.DB,
		RateLimitRequests: c.RateLimit,
		RateLimitBurst:    c.RateBurst,
		AllowedOrigins:    c.Origins,
		MaxSessions:       c.MaxSessions,
		SessionTTL:        c.SessionTimeout,
		Auth: api.AuthConfig{
			Enabled: c.APIKey != "",
			APIKey:  c.APIKey,
		},
		TLS: api.TLSConfig{
			Enabled:  c.TLSCert != "" || c.TLSKey != "",
			CertFile: c.TLSCert,
			KeyFile:  c.TLSKey,
		},
	}
	return api.Start(cfg)
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("cadence version %s\n", version)
	return nil
}

func initLogging() {
	level := map[string]logging.Level{
		"debug": logging.LevelDebug,
		"info":  logging.LevelInfo,
		"warn":  logging.LevelWarn,
		"error": logging.LevelError,
	}[CLI.LogLevel]

	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("cadence"),
		kong.Description("Cadence - sequence matching over typed token streams"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogging()
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
