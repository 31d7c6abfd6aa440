// Command dokobot joins a Doppelkopf lobby table and plays with the IS-MCTS
// decision core.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/maikel/doppelkopf/internal/client"
	"github.com/maikel/doppelkopf/internal/config"
)

func main() {
	opts := config.FromEnv()
	host := flag.String("host", opts.Host, "lobby server host")
	port := flag.String("port", opts.Port, "lobby server port")
	table := flag.String("table", opts.TableName, "table to create or join")
	actionTrees := flag.Int("action-trees", opts.ActionKernel.NTrees, "determinizations per action decision")
	actionRollouts := flag.Int("action-rollouts", opts.ActionKernel.NRollouts, "rollouts per action determinization")
	contractTrees := flag.Int("contract-trees", opts.ContractKernel.NTrees, "determinizations per contract candidate")
	contractRollouts := flag.Int("contract-rollouts", opts.ContractKernel.NRollouts, "rollouts per contract determinization")
	batchSize := flag.Int("batch-size", opts.ActionKernel.BatchSize, "cancellation granularity in rollouts")
	uctC := flag.Float64("uct-c", opts.ActionKernel.ExplorationC, "UCB1 exploration constant")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	opts.Host = *host
	opts.Port = *port
	opts.TableName = *table
	opts.ActionKernel.NTrees = *actionTrees
	opts.ActionKernel.NRollouts = *actionRollouts
	opts.ContractKernel.NTrees = *contractTrees
	opts.ContractKernel.NRollouts = *contractRollouts
	opts.ActionKernel.BatchSize = *batchSize
	opts.ContractKernel.BatchSize = *batchSize
	opts.ActionKernel.ExplorationC = *uctC
	opts.ContractKernel.ExplorationC = *uctC

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := client.New(opts, log).Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("client terminated")
	}
}
