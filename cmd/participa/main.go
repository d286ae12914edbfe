// Command participa lets a citizen register and track manifestations from a
// terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/client"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/form"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/media"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/pkg/logger"
)

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error { *l = append(*l, v); return nil }

func usage() {
	fmt.Fprintf(os.Stderr, `Uso:
  participa [-api URL] nova [-gravacao arquivo] [-audio arquivo] [-imagem arquivo]... [-video arquivo]
  participa [-api URL] consulta <protocolo>
  participa [-api URL] status
`)
}

func main() {
	apiURL := flag.String("api", envOr("PARTICIPA_API_URL", "http://localhost:3001"), "API base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	logLevel := flag.String("log-level", "warn", "debug, info, warn or error")
	flag.Usage = usage
	flag.Parse()

	slog.SetDefault(logger.New(&logger.Config{Level: *logLevel, Format: "text"}, os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(*apiURL, *timeout)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "nova":
		err = runNew(ctx, api, args[1:])
	case "consulta":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		err = runLookup(ctx, api, args[1])
	case "status":
		var h *client.Health
		if h, err = api.Health(ctx); err == nil {
			fmt.Printf("%s %s: %s\n", h.Service, h.Version, h.Status)
		}
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}

func runNew(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("nova", flag.ExitOnError)
	recording := fs.String("gravacao", "", "audio file used as the recorded take")
	audio := fs.String("audio", "", "audio file to attach")
	video := fs.String("video", "", "video file to attach")
	var images stringList
	fs.Var(&images, "imagem", "image file to attach, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	wizard := form.NewController(api, api)

	if *recording != "" {
		rec := media.NewRecorder(media.FileDevice{Path: *recording})
		defer rec.Close()
		if err := rec.Start(ctx); err != nil {
			if errors.Is(err, model.ErrPermission) {
				return fmt.Errorf("sem permissão para ler a gravação: %w", err)
			}
			return err
		}
		take, err := rec.Stop()
		if err != nil {
			return err
		}
		wizard.SetRecordedAudio(&take.File, "")
	}

	type attachment struct {
		path   string
		attach func(*model.MediaFile) error
	}
	attachments := []attachment{{*audio, wizard.AttachAudio}, {*video, wizard.AttachVideo}}
	for _, p := range images {
		attachments = append(attachments, attachment{p, wizard.AddImage})
	}
	for _, a := range attachments {
		if a.path == "" {
			continue
		}
		f, err := readMedia(a.path)
		if err != nil {
			return err
		}
		if err := a.attach(f); err != nil {
			return fmt.Errorf("%s: %w", a.path, err)
		}
	}

	conf, err := newWizardUI(os.Stdin, os.Stdout).run(ctx, wizard)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\nProtocolo: %s\nPrevisão de resposta: %s\n",
		conf.Message, conf.Protocol, conf.Deadline.Local().Format("02/01/2006"))
	return nil
}

func runLookup(ctx context.Context, api *client.Client, protocol string) error {
	m, err := api.Lookup(ctx, protocol)
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("protocolo %s não encontrado", protocol)
	}
	if err != nil {
		return err
	}
	renderStatus(os.Stdout, m, time.Now())
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
