package main

import (
	"flag"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"privacy-node/api"
	"privacy-node/internal/config"
	"privacy-node/internal/directory"
	"privacy-node/internal/enclave"
	"privacy-node/internal/index"
	"privacy-node/internal/logger"
	"privacy-node/internal/network"
	"privacy-node/internal/relay"
	"privacy-node/internal/session"
	"privacy-node/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the node configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Log.Fatalf("Failed to load config %s: %v", *configPath, err)
	}
	if err := logger.InitLogger(cfg.Logger); err != nil {
		logger.Log.Fatalf("Failed to initialize logger: %v", err)
	}

	store, err := storage.New(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	keys := enclave.NewKeyRing()
	for _, kp := range cfg.Node.Keys {
		if err := keys.AddEncoded(kp.PublicKey, kp.PrivateKey); err != nil {
			logger.Log.Fatalf("Failed to load key pair for %s: %v", kp.PublicKey, err)
		}
	}
	enc := enclave.New(keys)

	peers := directory.FromConfig(cfg.Peers)
	svc := relay.NewService(enc, store, index.New(store), peers, network.NewClient(), session.NewManager(), cfg.Node.URL)

	clientRouter := api.SetupClientRouter(svc)
	peerRouter := api.SetupPeerRouter(svc)

	logger.Log.Infof("Node %s serving client API on :%d and peer API on :%d",
		cfg.Node.Name, cfg.Node.ClientPort, cfg.Node.PeerPort)

	var g errgroup.Group
	g.Go(func() error {
		return http.ListenAndServe(fmt.Sprintf(":%d", cfg.Node.ClientPort), clientRouter)
	})
	g.Go(func() error {
		return http.ListenAndServe(fmt.Sprintf(":%d", cfg.Node.PeerPort), peerRouter)
	})
	if err := g.Wait(); err != nil {
		logger.Log.Fatalf("Server stopped: %v", err)
	}
}
