// internal/script/script.go

// Package script runs line-oriented command files against a device session.
// Each line is split with shell quoting rules; '#' starts a comment.
package script

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ic-control/internal/model"
	"ic-control/internal/register"
	"ic-control/internal/service"
	"ic-control/internal/transport"
)

// ErrUsage is wrapped by every argument error
var ErrUsage = errors.New("usage")

// ErrNoDevice is returned by connect without a descriptor when the scan is empty
var ErrNoDevice = errors.New("no device found")

// LineError locates a failing script line
type LineError struct {
	Line    int
	Command string
	Err     error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Command, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// UnknownCommandError is returned for a command name the runner does not know
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Name)
}

// Statement is one parsed script line
type Statement struct {
	Line int
	Name string
	Args []string
}

// Parse splits a script into statements, skipping blank and comment lines
func Parse(r io.Reader) ([]Statement, error) {
	var out []Statement
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		words, err := shlex.Split(text)
		if err != nil {
			return nil, &LineError{Line: line, Command: text, Err: err}
		}
		if len(words) == 0 {
			continue
		}
		out = append(out, Statement{Line: line, Name: strings.ToLower(words[0]), Args: words[1:]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return out, nil
}

type command struct {
	usage string
	min   int
	max   int
	run   func(r *Runner, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"connect":    {usage: "connect [descriptor]", max: 1, run: (*Runner).connect},
	"disconnect": {usage: "disconnect", run: func(r *Runner, ctx context.Context, _ []string) error { return r.session.Disconnect(ctx) }},
	"simulation": {usage: "simulation on|off", min: 1, max: 1, run: (*Runner).simulation},
	"protocol":   {usage: "protocol rffe|spi|i3c", min: 1, max: 1, run: (*Runner).protocol},
	"clock":      {usage: "clock", run: func(r *Runner, ctx context.Context, _ []string) error { return r.session.ApplyClockConfig(ctx) }},
	"vio":        {usage: "vio <level>", min: 1, max: 1, run: (*Runner).vio},
	"voltage":    {usage: "voltage <volts>", min: 1, max: 1, run: (*Runner).voltage},
	"frequency":  {usage: "frequency <hz>", min: 1, max: 1, run: (*Runner).frequency},
	"write":      {usage: "write <address> <value>", min: 2, max: 2, run: (*Runner).write},
	"field":      {usage: "field <address> <name> <value>", min: 3, max: 3, run: (*Runner).field},
	"read":       {usage: "read <address>", min: 1, max: 1, run: (*Runner).read},
	"raw":        {usage: "raw <text>...", min: 1, max: -1, run: (*Runner).raw},
	"sleep":      {usage: "sleep <duration>", min: 1, max: 1, run: (*Runner).sleep},
	"save":       {usage: "save <path> [csv|json]", min: 1, max: 2, run: (*Runner).save},
}

// Commands returns the usage line of every known command in name order
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = commands[name].usage
	}
	return out
}

// Runner executes statements in order and stops at the first failure
type Runner struct {
	session *service.DeviceSession
	out     io.Writer
	logger  *zap.Logger
}

// NewRunner creates a runner that prints read results to out
func NewRunner(session *service.DeviceSession, out io.Writer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{session: session, out: out, logger: logger.With(zap.String("component", "script"))}
}

// Run parses and executes a script
func (r *Runner) Run(ctx context.Context, src io.Reader) error {
	stmts, err := Parse(src)
	if err != nil {
		return err
	}
	return r.Exec(ctx, stmts)
}

// Exec executes parsed statements
func (r *Runner) Exec(ctx context.Context, stmts []Statement) error {
	for _, st := range stmts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.exec(ctx, st); err != nil {
			return &LineError{Line: st.Line, Command: st.Name, Err: err}
		}
		r.logger.Debug("Statement executed", zap.Int("line", st.Line), zap.String("command", st.Name))
	}
	return nil
}

func (r *Runner) exec(ctx context.Context, st Statement) error {
	cmd, ok := commands[st.Name]
	if !ok {
		return &UnknownCommandError{Name: st.Name}
	}
	if len(st.Args) < cmd.min || (cmd.max >= 0 && len(st.Args) > cmd.max) {
		return fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}
	return cmd.run(r, ctx, st.Args)
}

func parseUint32(s string) (uint32, error) {
	n, ok := register.ParseNumber(s)
	if !ok || n > 0xFFFFFFFF {
		return 0, fmt.Errorf("%w: invalid number %q", ErrUsage, s)
	}
	return uint32(n), nil
}

func (r *Runner) connect(ctx context.Context, args []string) error {
	if len(args) == 1 {
		return r.session.Connect(ctx, args[0])
	}
	devices, err := r.session.Scan(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return ErrNoDevice
	}
	return r.session.Connect(ctx, devices[0])
}

func (r *Runner) simulation(_ context.Context, args []string) error {
	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		r.session.Transport().SetSimulation(true)
	case "off", "false", "0":
		r.session.Transport().SetSimulation(false)
	default:
		return fmt.Errorf("%w: simulation on|off", ErrUsage)
	}
	return nil
}

func (r *Runner) protocol(_ context.Context, args []string) error {
	kind, err := model.ParseProtocolKind(strings.ToUpper(args[0]))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return r.session.SetActiveProtocol(kind)
}

func (r *Runner) vio(ctx context.Context, args []string) error {
	level, err := parseUint32(args[0])
	if err != nil {
		return err
	}
	control := r.session.State().Control
	control.VIO = uint(level)
	if err := r.session.UpdateControl(control); err != nil {
		return err
	}
	return r.session.ApplyOutputLevel(ctx)
}

func (r *Runner) voltage(ctx context.Context, args []string) error {
	v, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("%w: invalid voltage %q", ErrUsage, args[0])
	}
	control := r.session.State().Control
	control.Voltage = v
	if err := r.session.UpdateControl(control); err != nil {
		return err
	}
	return r.session.ApplyVoltage(ctx)
}

func (r *Runner) frequency(ctx context.Context, args []string) error {
	hz, ok := register.ParseNumber(args[0])
	if !ok {
		return fmt.Errorf("%w: invalid frequency %q", ErrUsage, args[0])
	}
	control := r.session.State().Control
	control.FrequencyHz = hz
	if err := r.session.UpdateControl(control); err != nil {
		return err
	}
	return r.session.ApplyFrequency(ctx)
}

func (r *Runner) write(ctx context.Context, args []string) error {
	address, err := parseUint32(args[0])
	if err != nil {
		return err
	}
	value, err := parseUint32(args[1])
	if err != nil {
		return err
	}
	return r.session.WriteRegister(ctx, address, value)
}

func (r *Runner) field(ctx context.Context, args []string) error {
	address, err := parseUint32(args[0])
	if err != nil {
		return err
	}
	value, err := parseUint32(args[2])
	if err != nil {
		return err
	}
	_, err = r.session.WriteBitfield(ctx, address, args[1], value)
	return err
}

func (r *Runner) read(ctx context.Context, args []string) error {
	address, err := parseUint32(args[0])
	if err != nil {
		return err
	}
	value, err := r.session.ReadRegister(ctx, address)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(r.out, "0x%02X = 0x%02X\n", address, value)
	return err
}

func (r *Runner) raw(ctx context.Context, args []string) error {
	return r.session.SendRaw(ctx, strings.Join(args, " "))
}

func (r *Runner) sleep(ctx context.Context, args []string) error {
	d, err := time.ParseDuration(args[0])
	if err != nil || d < 0 {
		return fmt.Errorf("%w: invalid duration %q", ErrUsage, args[0])
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Runner) save(_ context.Context, args []string) error {
	format := transport.FormatCSV
	if len(args) == 2 {
		format = args[1]
	}
	r.session.Transport().Flush()
	return r.session.Transport().SaveLog(args[0], format)
}
