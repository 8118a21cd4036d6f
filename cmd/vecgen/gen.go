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
	"go/format"
	"go/parser"
	"go/token"
	"io"
	"strings"
	"text/template"

	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
)

const vectorPkgPath = "github.com/matrixorigin/fluentvec/pkg/container/vector"

// Instance is one generated container, NameVector holding Type.
type Instance struct {
	Name string
	Type string
}

func parseInstances(args []string) ([]Instance, error) {
	seen := make(map[string]struct{}, len(args))
	instances := make([]Instance, 0, len(args))
	for _, arg := range args {
		name, typ, ok := strings.Cut(arg, "=")
		name, typ = strings.TrimSpace(name), strings.TrimSpace(typ)
		if !ok || name == "" || typ == "" {
			return nil, moerr.NewInvalidInputNoCtx("instance %q, want Name=type", arg)
		}
		if !token.IsIdentifier(name) || !token.IsExported(name) {
			return nil, moerr.NewInvalidInputNoCtx("instance name %q is not an exported identifier", name)
		}
		if _, err := parser.ParseExpr(typ); err != nil {
			return nil, moerr.NewInvalidInputNoCtx("instance type %q: %v", typ, err)
		}
		if _, ok := seen[name]; ok {
			return nil, moerr.NewInvalidInputNoCtx("duplicate instance %q", name)
		}
		seen[name] = struct{}{}
		instances = append(instances, Instance{Name: name, Type: typ})
	}
	return instances, nil
}

var instancesTemplate = template.Must(template.New("instances").Parse(`// Code generated by vecgen. DO NOT EDIT.

package {{.Package}}
{{if .Qualifier}}
import "{{.Import}}"
{{end}}
{{- range .Instances}}
// {{.Name}}Vector is a Vector of {{.Type}}.
type {{.Name}}Vector = {{$.Qualifier}}Vector[{{.Type}}]

func New{{.Name}}Vector(opts ...{{$.Qualifier}}Options) (*{{.Name}}Vector, error) {
	return {{$.Qualifier}}New[{{.Type}}](opts...)
}
{{end}}`))

func render(w io.Writer, pkg string, instances []Instance) error {
	if !token.IsIdentifier(pkg) {
		return moerr.NewInvalidInputNoCtx("package name %q", pkg)
	}
	data := struct {
		Package   string
		Qualifier string
		Import    string
		Instances []Instance
	}{
		Package:   pkg,
		Import:    vectorPkgPath,
		Instances: instances,
	}
	if pkg != "vector" {
		data.Qualifier = "vector."
	}

	var buf bytes.Buffer
	if err := instancesTemplate.Execute(&buf, data); err != nil {
		return err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return moerr.NewInternalErrorNoCtx("format generated source: %v", err)
	}
	_, err = w.Write(src)
	return err
}
