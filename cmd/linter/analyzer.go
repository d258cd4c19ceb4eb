package main

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

const doc = `plainquery reports percent-encoding in the signing path

ProfitShare signs the query string exactly as sent, brackets and commas
included. This analyzer reports calls to url.QueryEscape, url.PathEscape
and (url.Values).Encode inside packages named signer or profitshare,
where an encoded query would no longer match its signature.`

var Analyzer = &analysis.Analyzer{
	Name:     "plainquery",
	Doc:      doc,
	Run:      run,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

var guardedPackages = map[string]bool{
	"signer":      true,
	"profitshare": true,
}

var encoders = map[string]string{
	"net/url.QueryEscape":     "url.QueryEscape",
	"net/url.PathEscape":      "url.PathEscape",
	"(net/url.Values).Encode": "url.Values.Encode",
}

func run(pass *analysis.Pass) (interface{}, error) {
	if !guardedPackages[pass.Pkg.Name()] {
		return nil, nil
	}

	inspector := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}

	inspector.Preorder(nodeFilter, func(node ast.Node) {
		callExpr := node.(*ast.CallExpr)

		fn := typeutil.StaticCallee(pass.TypesInfo, callExpr)
		if fn == nil {
			return
		}

		if name, ok := encoders[fn.FullName()]; ok {
			pass.Reportf(
				callExpr.Pos(),
				"%s percent-encodes the query; package %s must sign the plain query",
				name,
				pass.Pkg.Name(),
			)
		}
	})

	return nil, nil
}
