// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/matrixorigin/fluentvec/pkg/common/malloc"
	"github.com/matrixorigin/fluentvec/pkg/common/mpool"
	"github.com/matrixorigin/fluentvec/pkg/config"
	"github.com/matrixorigin/fluentvec/pkg/logutil"
	metric "github.com/matrixorigin/fluentvec/pkg/util/metric/v2"
)

func rootCommand() *cobra.Command {
	var (
		configFile  string
		workers     int
		tasks       int
		showMetrics bool
	)
	cmd := &cobra.Command{
		Use:          "vecbench",
		Short:        "Exercise the containers on a worker pool",
		Long:         "Run independent single-owner container workloads and report the pool usage",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			if configFile != "" {
				var err error
				if cfg, err = config.LoadFromFile(configFile); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("workers") {
				cfg.Bench.Workers = workers
			}
			if cmd.Flags().Changed("tasks") {
				cfg.Bench.Tasks = tasks
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logutil.SetupLogger(&cfg.Log)

			allocator, err := malloc.NewAllocator(cfg.Malloc)
			if err != nil {
				return err
			}
			mp, err := cfg.MPool.Build(allocator)
			if err != nil {
				return err
			}
			defer mpool.DeleteMPool(mp)

			res, err := runBench(context.Background(), cfg, mp)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.String())
			fmt.Fprintln(out, mpool.ReportMemUsage(mp.Name()))
			if showMetrics {
				return writeMetrics(out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "toml configuration file")
	cmd.Flags().IntVar(&workers, "workers", 0, "size of the worker pool")
	cmd.Flags().IntVar(&tasks, "tasks", 0, "number of workloads")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print the container and memory metrics")
	return cmd
}

// writeMetrics prints the metric families of this module in text format.
func writeMetrics(w io.Writer) error {
	families, err := metric.GetPrometheusGatherer().Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "fv_") {
			continue
		}
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
