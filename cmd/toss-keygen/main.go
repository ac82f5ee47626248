package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zmlAEQ/godtoss-node/internal/ssc"
)

type stakeholderConfig struct {
	StakeholderID string `json:"stakeholder_id"`
	PubKey        []byte `json:"pubkey"`
	PrivKey       []byte `json:"privkey"`
	VssPubKey     []byte `json:"vss_pubkey"`
	VssPrivKey    []byte `json:"vss_privkey"`
}

type publicEntry struct {
	StakeholderID string `json:"stakeholder_id"`
	PubKey        []byte `json:"pubkey"`
	VssPubKey     []byte `json:"vss_pubkey"`
}

func main() {
	var (
		n   int
		out string
	)
	flag.IntVar(&n, "n", 4, "Number of stakeholders")
	flag.StringVar(&out, "out", "toss-keys", "Output directory")
	flag.Parse()

	if n <= 0 {
		fmt.Fprintln(os.Stderr, "invalid n")
		os.Exit(2)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	roster := make([]publicEntry, 0, n)
	for i := 1; i <= n; i++ {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		vssPub, vssPriv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		id := ssc.StakeholderOf(pub)
		cfg := stakeholderConfig{
			StakeholderID: string(id),
			PubKey:        pub,
			PrivKey:       priv,
			VssPubKey:     vssPub,
			VssPrivKey:    vssPriv,
		}
		if err := writeJSON(filepath.Join(out, fmt.Sprintf("stakeholder-%d.json", i)), cfg, 0o600); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		roster = append(roster, publicEntry{StakeholderID: string(id), PubKey: pub, VssPubKey: vssPub})
	}

	if err := writeJSON(filepath.Join(out, "toss-roster.json"), roster, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Printf("wrote %d stakeholder key files and roster to %s\n", n, out)
}

func writeJSON(path string, v any, mode os.FileMode) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, mode)
}
