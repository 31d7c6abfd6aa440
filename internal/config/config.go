// Package config resolves the agent's configuration knobs from a .env file
// and environment variables; flag values from the command line override
// both.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/maikel/doppelkopf/agent"
)

// Options configures the lobby client and its two kernels.
type Options struct {
	// Host and Port locate the lobby server.
	Host string
	Port string
	// TableName is the table the client creates or joins. When empty the
	// client derives one from its instance id.
	TableName string

	ActionKernel   agent.KernelOptions
	ContractKernel agent.KernelOptions
}

// Default returns the reference configuration.
func Default() Options {
	return Options{
		Host: "localhost",
		Port: "8000",
		ActionKernel: agent.KernelOptions{
			NTrees:       agent.DefaultActionTrees,
			NRollouts:    agent.DefaultActionRollouts,
			BatchSize:    agent.DefaultBatchSize,
			ExplorationC: agent.DefaultExplorationC,
		},
		ContractKernel: agent.KernelOptions{
			NTrees:       agent.DefaultContractTrees,
			NRollouts:    agent.DefaultContractRollouts,
			BatchSize:    agent.DefaultBatchSize,
			ExplorationC: agent.DefaultExplorationC,
		},
	}
}

// FromEnv loads .env (when present) and applies DOKO_* variables on top of
// the defaults.
func FromEnv() Options {
	_ = godotenv.Load()
	opts := Default()
	stringVar(&opts.Host, "DOKO_HOST")
	stringVar(&opts.Port, "DOKO_PORT")
	stringVar(&opts.TableName, "DOKO_TABLE_NAME")
	intVar(&opts.ActionKernel.NTrees, "DOKO_ACTION_TREES")
	intVar(&opts.ActionKernel.NRollouts, "DOKO_ACTION_ROLLOUTS")
	intVar(&opts.ContractKernel.NTrees, "DOKO_CONTRACT_TREES")
	intVar(&opts.ContractKernel.NRollouts, "DOKO_CONTRACT_ROLLOUTS")
	intVar(&opts.ActionKernel.BatchSize, "DOKO_BATCH_SIZE")
	intVar(&opts.ContractKernel.BatchSize, "DOKO_BATCH_SIZE")
	floatVar(&opts.ActionKernel.ExplorationC, "DOKO_UCT_C")
	floatVar(&opts.ContractKernel.ExplorationC, "DOKO_UCT_C")
	return opts
}

func stringVar(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func intVar(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func floatVar(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			*dst = f
		}
	}
}
