package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zmlAEQ/godtoss-node/internal/api"
	"github.com/zmlAEQ/godtoss-node/internal/chain"
	"github.com/zmlAEQ/godtoss-node/internal/monitoring"
	"github.com/zmlAEQ/godtoss-node/internal/p2p"
	"github.com/zmlAEQ/godtoss-node/internal/relay"
	"github.com/zmlAEQ/godtoss-node/internal/slotticker"
	"github.com/zmlAEQ/godtoss-node/internal/ssc"
	"github.com/zmlAEQ/godtoss-node/internal/ssc/localdata"
	"github.com/zmlAEQ/godtoss-node/pkg/bus"
	"github.com/zmlAEQ/godtoss-node/pkg/lifecycle"
	"github.com/zmlAEQ/godtoss-node/pkg/logger"
)

func main() {
	var (
		apiAddr      string
		monAddr      string
		genesisUnix  int64
		slotDur      time.Duration
		kParam       uint64
		maxBlockSize int
		richNum      uint64
		richDen      uint64
		stakesFile   string
		p2pEnable    bool
		p2pListen    string
		p2pBoot      string
		p2pNAT       bool
	)
	flag.StringVar(&apiAddr, "ingest-api", "127.0.0.1:4700", "Ingest API listen address")
	flag.StringVar(&monAddr, "monitoring", "127.0.0.1:4720", "Monitoring listen address")
	flag.Int64Var(&genesisUnix, "genesis", time.Now().Unix(), "Genesis unix time (seconds)")
	flag.DurationVar(&slotDur, "slot-duration", 20*time.Second, "Slot duration")
	flag.Uint64Var(&kParam, "k", 2, "Slot security parameter K (epoch = 10K slots)")
	flag.IntVar(&maxBlockSize, "max-block-size", 1<<20, "Max block size in bytes")
	flag.Uint64Var(&richNum, "richmen-num", 1, "Richmen threshold numerator")
	flag.Uint64Var(&richDen, "richmen-den", 1000, "Richmen threshold denominator")
	flag.StringVar(&stakesFile, "stakes", "", "JSON file mapping stakeholder id to stake (dev chains: fixed richmen for every epoch)")
	flag.BoolVar(&p2pEnable, "p2p.enable", false, "Enable P2P transport (libp2p+gossipsub, behind 'p2p' build tag)")
	flag.StringVar(&p2pListen, "p2p.listen", "", "P2P listen multiaddr (e.g. /ip4/0.0.0.0/tcp/31000)")
	flag.StringVar(&p2pBoot, "p2p.bootnodes", "", "Comma-separated bootnode multiaddrs or path to file")
	flag.BoolVar(&p2pNAT, "p2p.nat", false, "Enable NAT port mapping")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	params := ssc.ChainParams{
		K:             kParam,
		MaxBlockSize:  maxBlockSize,
		SlotDuration:  slotDur,
		MempoolFactor: 2,
	}
	clock := chain.NewSlotClock(time.Unix(genesisUnix, 0), params)
	var richmen localdata.RichmenOracle = chain.NewRichmenTable(richNum, richDen)
	if stakesFile != "" {
		stakes, err := loadStakes(stakesFile)
		if err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		richmen = chain.NewStaticRichmen(stakes)
	}
	global := chain.NewGlobalStore()
	provider := chain.NewStaticParams(params)
	seeds := chain.NewSeedSource()
	ld := localdata.New(clock, richmen, global, provider, seeds)

	b := bus.New(256)
	rel := relay.New(b.Subscribe(), ld)

	m := lifecycle.New()
	m.Add(api.New(apiAddr, b))
	m.Add(monitoring.New(monAddr))
	m.Add(rel)
	m.Add(slotticker.New(clock, richmen, global, provider, ld, b))

	// Start P2P transport (behind build tag); safe no-op without 'p2p' tag
	// or when disabled.
	if p2pEnable {
		cfg := p2p.NetConfig{Enable: true, NAT: p2pNAT}
		if p2pListen != "" {
			cfg.Listen = []string{p2pListen}
		}
		cfg.Bootnodes = parseBootnodes(p2pBoot)
		if t, _ := p2p.StartTransportIfEnabled(ctx, cfg); t != nil {
			t.OnSsc(rel.Handle)
			m.Add(p2p.NewNetService(t))
		}
	}

	if err := m.StartAll(ctx); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	<-ctx.Done()
	_ = m.StopAll(context.Background())
}

func loadStakes(path string) (map[ssc.StakeholderID]uint64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stakes map[ssc.StakeholderID]uint64
	if err := json.Unmarshal(b, &stakes); err != nil {
		return nil, err
	}
	return stakes, nil
}

// parseBootnodes accepts a comma list of multiaddrs or a path to a file
// with one multiaddr per line.
func parseBootnodes(arg string) []string {
	if arg == "" {
		return nil
	}
	var out []string
	if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
		if b, err := os.ReadFile(arg); err == nil {
			for _, ln := range strings.Split(string(b), "\n") {
				if ln = strings.TrimSpace(ln); ln != "" {
					out = append(out, ln)
				}
			}
		}
		return out
	}
	for _, p := range strings.Split(arg, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
