// ABOUTME: Test listener for the PCM relay
// ABOUTME: Plays the live relay stream and optionally records it to WAV
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/pcm-relay/internal/discovery"
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio/decode"
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio/output"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

var (
	serverAddr = flag.String("server", "", "Relay address host:port (default: discover via mDNS)")
	record     = flag.String("record", "", "Record the stream to this WAV file")
	noPlay     = flag.Bool("no-play", false, "Do not play audio locally")
	volume     = flag.Int("volume", 100, "Playback volume 0-100")
	sampleRate = flag.Int("rate", 16000, "Relay sample rate")
	channels   = flag.Int("channels", 1, "Relay channel count")
	bitDepth   = flag.Int("bits", 16, "Relay bit depth (16 or 24)")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.Fatalf("Monitor error: %v", err)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Printf("Received %v signal, stopping monitor...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	format := audio.Format{
		Codec:      audio.CodecPCM,
		SampleRate: *sampleRate,
		Channels:   *channels,
		BitDepth:   *bitDepth,
	}
	if err := format.Validate(); err != nil {
		return err
	}

	sinks := output.Multi{}
	if !*noPlay {
		player := output.NewOto()
		player.SetVolume(*volume)
		sinks = append(sinks, player)
	}
	var recorder *output.Recorder
	if *record != "" {
		recorder = output.NewRecorder(*record)
		sinks = append(sinks, recorder)
	}
	if len(sinks) == 0 {
		return errors.New("nothing to do: enable playback or set -record")
	}

	addr, err := resolveServer(ctx, *serverAddr)
	if err != nil {
		return err
	}

	decoder, err := decode.NewPCM(format)
	if err != nil {
		return err
	}
	defer decoder.Close()

	if err := sinks.Open(format); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			log.Printf("Error closing output: %v", err)
		}
		if recorder != nil {
			log.Printf("Recorded %v to %s", format.Duration(recorder.Written()), *record)
		}
	}()

	url := fmt.Sprintf("ws://%s/monitor", addr)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer conn.Close()
	log.Printf("Listening on %s (%s)", url, format)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "monitor stopped")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		return nil
	})

	g.Go(func() error {
		defer cancel()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				var ce *websocket.CloseError
				if errors.As(err, &ce) {
					log.Printf("Relay closed the connection: %d %s", ce.Code, ce.Text)
					return nil
				}
				return fmt.Errorf("read error: %w", err)
			}
			if msgType != websocket.BinaryMessage {
				continue
			}

			samples, err := decoder.Decode(data)
			if err != nil {
				return fmt.Errorf("decode error: %w", err)
			}
			if len(samples) == 0 {
				continue
			}
			if err := sinks.Write(samples); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		}
	})

	return g.Wait()
}

// resolveServer returns addr, or the first relay found on the LAN
func resolveServer(ctx context.Context, addr string) (string, error) {
	if addr != "" {
		return addr, nil
	}

	log.Printf("Discovering relays via mDNS...")
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	server, err := discovery.FindFirst(ctx)
	if err != nil {
		return "", err
	}
	log.Printf("Found relay: %s at %s", server.Name, server.Addr())
	return server.Addr(), nil
}
