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
	"bytes"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matrixorigin/fluentvec/pkg/logutil"
)

func rootCommand() *cobra.Command {
	var (
		pkg string
		out string
	)
	cmd := &cobra.Command{
		Use:   "vecgen [flags] Name=type...",
		Short: "Generate named vector instantiations",
		Long: "Render one container type and constructor per Name=type pair, " +
			"e.g. vecgen --package vector --out instances_gen.go Int64=int64 Bytes=[]byte",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			instances, err := parseInstances(args)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err = render(&buf, pkg, instances); err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err = os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return err
			}
			logutil.Info("vector instances generated",
				zap.String("file", out),
				zap.Int("count", len(instances)),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&pkg, "package", "vector", "package of the generated file")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}
