package config

import (
	"encoding/hex"
	"os"

	"github.com/BurntSushi/toml"

	"stakingcore/crypto"
)

// Load reads a NodeConfig from path, creating a default file with a freshly
// generated validator key if none exists yet.
func Load(path string) (*NodeConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &NodeConfig{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*NodeConfig, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	keyPath := path + ".validator.key"
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key.Bytes())), 0o600); err != nil {
		return nil, err
	}

	cfg := &NodeConfig{
		DataDir:            "./stakingcore-data",
		QueryListenAddr:    ":8551",
		NotifyListenAddr:   ":8552",
		ValidatorKeyPath:   keyPath,
		EconomicParamsPath: "./economic-params.yaml",
		GenesisPath:        "./genesis.json",
		Observability: Observability{
			ServiceName:   "stakingcore",
			Environment:   "dev",
			LogFilePath:   "./stakingcore.log",
			LogMaxSizeMB:  100,
			LogMaxAgeDays: 28,
			LogMaxBackups: 7,
		},
		RateLimit: RateLimit{
			RequestsPerSecond: 50,
			Burst:             100,
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
