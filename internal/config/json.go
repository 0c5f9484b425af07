package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/Nkovaturient/blocklock-kit/internal/flagx"
	"github.com/Nkovaturient/blocklock-kit/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be given either as strings like "30s" or
// as integer nanoseconds. After parsing, values are copied into the runtime
// Config. Zero values mean "keep the default".
type JsonConfig struct {
	RPCEndpoints        []string       `json:"rpc_endpoints"`
	ContractAddress     string         `json:"contract_address"`
	ChunkSize           uint64         `json:"chunk_size"`
	PrefetchBlocks      uint64         `json:"prefetch_blocks"`
	SearchForwardBlocks uint64         `json:"search_forward_blocks"`
	DefaultScanSpan     uint64         `json:"default_scan_span"`
	AvgBlockTime        timex.Duration `json:"avg_block_time"`
	PollInterval        timex.Duration `json:"poll_interval"`
	RetryAttempts       uint64         `json:"retry_attempts"`
	RetryDelay          timex.Duration `json:"retry_delay"`
	CachePath           string         `json:"cache_path"`
	S3RootUser          string         `json:"s3_root_user"`
	S3RootPassword      string         `json:"s3_root_password"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	OracleBaseURL       string         `json:"oracle_base_url"`
	OracleChainHash     string         `json:"oracle_chain_hash"`
}

// parseJson overlays cfg with values from the JSON file named by the
// -c/-config flags. No file selected means no overlay. Read or unmarshal
// errors panic; the process cannot do anything useful with a broken config.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFilePath()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if len(jc.RPCEndpoints) > 0 {
		cfg.RPCEndpoints = jc.RPCEndpoints
	}
	if jc.ContractAddress != "" {
		cfg.ContractAddress = jc.ContractAddress
	}
	if jc.ChunkSize > 0 {
		cfg.ChunkSize = jc.ChunkSize
	}
	if jc.PrefetchBlocks > 0 {
		cfg.PrefetchBlocks = jc.PrefetchBlocks
	}
	if jc.SearchForwardBlocks > 0 {
		cfg.SearchForwardBlocks = jc.SearchForwardBlocks
	}
	if jc.DefaultScanSpan > 0 {
		cfg.DefaultScanSpan = jc.DefaultScanSpan
	}
	if jc.AvgBlockTime.Duration > 0 {
		cfg.AvgBlockTime = time.Duration(jc.AvgBlockTime.Duration)
	}
	if jc.PollInterval.Duration > 0 {
		cfg.PollInterval = time.Duration(jc.PollInterval.Duration)
	}
	if jc.RetryAttempts > 0 {
		cfg.RetryAttempts = jc.RetryAttempts
	}
	if jc.RetryDelay.Duration > 0 {
		cfg.RetryDelay = time.Duration(jc.RetryDelay.Duration)
	}
	if jc.CachePath != "" {
		cfg.CachePath = jc.CachePath
	}
	if jc.S3RootUser != "" {
		cfg.S3RootUser = jc.S3RootUser
	}
	if jc.S3RootPassword != "" {
		cfg.S3RootPassword = jc.S3RootPassword
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3BaseEndpoint != "" {
		cfg.S3BaseEndpoint = jc.S3BaseEndpoint
	}
	if jc.OracleBaseURL != "" {
		cfg.OracleBaseURL = jc.OracleBaseURL
	}
	if jc.OracleChainHash != "" {
		cfg.OracleChainHash = jc.OracleChainHash
	}
}
