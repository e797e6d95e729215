// Command imapcat decodes IMAP4 protocol transcripts. It reads the bytes one
// side of a connection sent, client commands or server responses, and prints
// the decoded events. Useful for inspecting network captures and server logs.
//
// Usage:
//
//	imapcat commands [file ...]
//	imapcat responses [file ...]
//	imapcat describeconf
//
// Without files, stdin is read. An AUTHENTICATE exchange in a command
// transcript is assumed to be a single challenge-response round, more rounds
// cannot be recognized from one side of the connection alone.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/mjl-/sconf"
	"github.com/rs/xid"

	"github.com/apple/swift-nio-imap-sub005/imapparse"
	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

var config struct {
	MaxLineBytes int  `sconf:"optional" sconf-doc:"Maximum size in bytes of a line, including inlined literal payloads. Larger literals are streamed in chunks, longer lines are an error. Default 1MiB."`
	MaxNesting   int  `sconf:"optional" sconf-doc:"Maximum nesting depth of search keys and body structures. Default 1000."`
	Dump         bool `sconf:"optional" sconf-doc:"Print full event structures instead of one-line summaries."`
}

var dumper = spew.ConfigState{Indent: "\t", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: imapcat [-config file] [-dump] commands [file ...]")
	fmt.Fprintln(os.Stderr, "       imapcat [-config file] [-dump] responses [file ...]")
	fmt.Fprintln(os.Stderr, "       imapcat describeconf")
	flag.PrintDefaults()
	os.Exit(2)
}

func xcheckf(log *slog.Logger, err error, format string, args ...any) {
	if err != nil {
		log.Error(fmt.Sprintf(format, args...), "err", err)
		os.Exit(1)
	}
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	configPath := flag.String("config", "", "path to config file, see the describeconf subcommand for its format")
	dump := flag.Bool("dump", false, "print full event structures")
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	if *configPath != "" {
		err := sconf.ParseFile(*configPath, &config)
		xcheckf(log, err, "parsing config file")
	}
	if *dump {
		config.Dump = true
	}
	limits := imapwire.DefaultLimits
	if config.MaxLineBytes > 0 {
		limits.MaxLineBytes = config.MaxLineBytes
	}
	if config.MaxNesting > 0 {
		limits.MaxNesting = config.MaxNesting
	}

	var newReader func() eventReader
	switch args[0] {
	case "describeconf":
		err := sconf.Describe(os.Stdout, &config)
		xcheckf(log, err, "describing config")
		return
	case "commands":
		newReader = func() eventReader { return imapparse.NewCommandReader(limits) }
	case "responses":
		newReader = func() eventReader { return imapparse.NewResponseReader(limits) }
	default:
		usage()
	}

	files := args[1:]
	if len(files) == 0 {
		catFile(log, newReader(), os.Stdin, "stdin")
		return
	}
	for _, p := range files {
		f, err := os.Open(p)
		xcheckf(log, err, "open %s", p)
		catFile(log, newReader(), f, p)
		f.Close()
	}
}

// eventReader is the common shape of the command and response readers.
type eventReader interface {
	Write([]byte) (int, error)
	Next() (imapparse.Event, int, error)
}

func catFile(log *slog.Logger, r eventReader, f io.Reader, name string) {
	log = log.With("session", xid.New().String(), "file", name)

	var total uint64
	var events, conts, badLines int

	drain := func() bool {
		for {
			ev, c, err := r.Next()
			conts += c
			if err != nil {
				badLines++
				log.Error("decoding", "err", err)
				// Framing errors spoil the rest of the stream.
				if errors.Is(err, imapwire.ErrLineTooLong) || errors.Is(err, imapwire.ErrBadLiteral) {
					return false
				}
				continue
			}
			if ev == nil {
				return true
			}
			events++
			printEvent(r, ev)
		}
	}

	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			total += uint64(n)
			if _, werr := r.Write(buf[:n]); werr != nil {
				log.Error("feeding decoder", "err", werr)
				break
			}
			if !drain() {
				break
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Error("reading input", "err", err)
			break
		}
	}

	log.Info("done", "size", humanize.Bytes(total), "events", events, "continuations", conts, "badlines", badLines)
}

func printEvent(r eventReader, ev imapparse.Event) {
	switch e := ev.(type) {
	case imapparse.EventCommand:
		fmt.Printf("command %s %s\n", e.Cmd.Tag, e.Cmd.Name)
	case imapparse.EventLiteral:
		suffix := ""
		if e.Last {
			suffix = ", last"
		}
		fmt.Printf("literal chunk %s%s\n", humanize.Bytes(uint64(len(e.Data))), suffix)
		return
	case imapparse.EventAppendMessage:
		fmt.Printf("append message %s\n", humanize.Bytes(uint64(len(e.Msg.Data))))
	case imapparse.EventAppendDone:
		fmt.Printf("append done\n")
	case imapparse.EventIdleDone:
		fmt.Printf("idle done\n")
	case imapparse.EventAuthLine:
		fmt.Printf("auth line %s\n", humanize.Bytes(uint64(len(e.Line))))
		// Transcripts only show one side, assume the SASL exchange is over.
		if cr, ok := r.(*imapparse.CommandReader); ok {
			cr.FinishAuth()
		}
		return
	case imapparse.EventUntagged:
		fmt.Printf("untagged %T\n", e.Untagged)
	case imapparse.EventResult:
		fmt.Printf("result %s %s\n", e.Result.Tag, e.Result.Status)
	case imapparse.EventContinuation:
		fmt.Printf("continuation %q\n", e.Text)
	case imapparse.EventFetchBegin:
		fmt.Printf("fetch %d, %d attributes, streaming %s\n", e.Seq, len(e.Attrs), e.StreamingAtt.Field)
	case imapparse.EventFetchEnd:
		fmt.Printf("fetch done, %d more attributes\n", len(e.Attrs))
	}
	if config.Dump {
		dumper.Dump(ev)
	}
}
