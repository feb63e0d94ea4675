package main

import (
	"flag"
	"go/types"
	"log"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/go/packages"
)

// shardgen generates the Parameters/GetParam/SetParam boilerplate for
// shard types from their parameter structs: a struct named FooParams with
// value.Value fields (tagged `help:"..." allow:"Int,Float"`) yields the
// three methods on *Foo, reading and writing a `params FooParams` field.
var (
	paramsRegexp = regexp.MustCompile(`^(.*)Params$`)
)

const (
	shardPkg    = "github.com/zond/wiremesh/shard"
	typeinfoPkg = "github.com/zond/wiremesh/typeinfo"
	valuePkg    = "github.com/zond/wiremesh/value"
)

// allowedCode turns one entry of an `allow:"..."` tag into the TypeInfo
// literal the generated ParamInfo table and SetParam check both use.
// "Any" and "None" map to the typeinfo package's canonical instances;
// anything else is taken as a value.Kind constant name.
func allowedCode(name string) jen.Code {
	switch name {
	case "Any":
		return jen.Qual(typeinfoPkg, "AnyType")
	case "None":
		return jen.Qual(typeinfoPkg, "NoneType")
	default:
		return jen.Values(jen.Dict{
			jen.Id("Kind"): jen.Qual(valuePkg, name),
		})
	}
}

func allowedList(tag string) []string {
	if tag == "" {
		return []string{"Any"}
	}
	return strings.Split(tag, ",")
}

func main() {
	in := flag.String("in", "", "package pattern to read")
	out := flag.String("out", "", "file to write")
	pkg := flag.String("pkg", "", "package of out")

	flag.Parse()

	if *in == "" || *out == "" || *pkg == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := &packages.Config{Mode: packages.NeedTypes}
	pkgs, err := packages.Load(cfg, *in)
	if err != nil {
		log.Panic(err)
	}

	f := jen.NewFile(*pkg)
	f.PackageComment("Code generated by shardgen, DO NOT EDIT.")

	for _, pkg := range pkgs {
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			obj := scope.Lookup(name)
			match := paramsRegexp.FindStringSubmatch(obj.Name())
			if match == nil || match[1] == "" {
				continue
			}
			structType, ok := obj.Type().Underlying().(*types.Struct)
			if !ok {
				continue
			}
			shardName := match[1]

			rows := []jen.Code{}
			getCases := []jen.Code{}
			setCases := []jen.Code{}
			for i := 0; i < structType.NumFields(); i++ {
				field := structType.Field(i)
				tag := reflect.StructTag(structType.Tag(i))
				allowed := allowedList(tag.Get("allow"))
				allowedVals := []jen.Code{}
				for _, a := range allowed {
					allowedVals = append(allowedVals, allowedCode(a))
				}
				rows = append(rows, jen.Values(jen.Dict{
					jen.Id("Name"):        jen.Lit(field.Name()),
					jen.Id("Help"):        jen.Lit(tag.Get("help")),
					jen.Id("AllowedType"): jen.Index().Qual(shardPkg, "AllowedType").Values(allowedVals...),
				}))
				getCases = append(getCases, jen.Case(jen.Lit(i)).Block(
					jen.Return(jen.Id("v").Dot("params").Dot(field.Name())),
				))
				setCases = append(setCases, jen.Case(jen.Lit(i)).Block(
					jen.Qual(valuePkg, "CloneInto").Call(
						jen.Op("&").Id("v").Dot("params").Dot(field.Name()),
						jen.Id("val"),
					),
					jen.Return(jen.Nil()),
				))
			}

			f.Func().Params(
				jen.Id("v").Op("*").Id(shardName),
			).Id("Parameters").Params().Index().Qual(shardPkg, "ParamInfo").Block(
				jen.Return(jen.Index().Qual(shardPkg, "ParamInfo").Values(rows...)),
			)

			f.Func().Params(
				jen.Id("v").Op("*").Id(shardName),
			).Id("GetParam").Params(jen.Id("i").Id("int")).Qual(valuePkg, "Value").Block(
				jen.Switch(jen.Id("i")).Block(getCases...),
				jen.Return(jen.Qual(valuePkg, "Value").Values()),
			)

			setBody := []jen.Code{
				jen.Id("slots").Op(":=").Id("v").Dot("Parameters").Call(),
				jen.If(jen.Id("i").Op("<").Lit(0).Op("||").Id("i").Op(">=").Id("len").Call(jen.Id("slots"))).Block(
					jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit("no parameter slot %d"), jen.Id("i"))),
				),
				jen.Id("info").Op(",").Id("_").Op(":=").Qual(typeinfoPkg, "Derive").Call(jen.Id("val"), jen.Nil()),
				jen.Id("ok").Op(":=").Id("false"),
				jen.For(
					jen.Id("_").Op(",").Id("a").Op(":=").Range().Id("slots").Index(jen.Id("i")).Dot("AllowedType"),
				).Block(
					jen.If(jen.Qual(typeinfoPkg, "Match").Call(jen.Id("info"), jen.Id("a"), jen.True(), jen.True())).Block(
						jen.Id("ok").Op("=").True(),
						jen.Break(),
					),
				),
				jen.If(jen.Op("!").Id("ok")).Block(
					jen.Return(jen.Qual("fmt", "Errorf").Call(
						jen.Lit("parameter %q: value of kind %s not accepted"),
						jen.Id("slots").Index(jen.Id("i")).Dot("Name"),
						jen.Id("info").Dot("Kind"),
					)),
				),
				jen.Switch(jen.Id("i")).Block(setCases...),
				jen.Return(jen.Nil()),
			}
			f.Func().Params(
				jen.Id("v").Op("*").Id(shardName),
			).Id("SetParam").Params(
				jen.Id("i").Id("int"),
				jen.Id("val").Qual(valuePkg, "Value"),
			).Id("error").Block(setBody...)
		}
	}

	if err := f.Save(*out); err != nil {
		log.Panic(err)
	}
}
