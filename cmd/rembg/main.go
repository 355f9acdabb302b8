// Command rembg runs the background removal stage against a single image,
// from a local path or a URL, and writes the cutout PNG. Useful for checking
// the segmentation service without the web client.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"server/internal/rembg"
)

func main() {
	_ = godotenv.Load()

	input := flag.String("in", "", "input image: local path or http(s) url")
	output := flag.String("out", "cutout.png", "output png path")
	endpoint := flag.String("endpoint", envOr("SEGMENT_ENDPOINT", "http://localhost:8188/segment"), "segmentation service endpoint")
	timeout := flag.Duration("timeout", 30*time.Second, "segmentation call timeout")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: rembg -in <path-or-url> [-out cutout.png]")
		os.Exit(2)
	}

	data, err := readInput(*input)
	if err != nil {
		fatal(err)
	}
	img, err := rembg.DecodeImage(data)
	if err != nil {
		fatal(err)
	}

	svc := rembg.NewService(func() (rembg.Segmenter, error) {
		return rembg.NewHTTPSegmenter(*endpoint, *timeout), nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+10*time.Second)
	defer cancel()
	cut, err := svc.Remove(ctx, img)
	if err != nil {
		fatal(err)
	}

	out, err := rembg.EncodePNG(cut)
	if err != nil {
		fatal(err)
	}
	if err := os.WriteFile(*output, out, 0o644); err != nil {
		fatal(err)
	}
	fmt.Println("wrote", *output)
}

func readInput(in string) ([]byte, error) {
	if strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://") {
		resp, err := http.Get(in)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: %s", in, resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(in)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "rembg:", err)
	os.Exit(1)
}
