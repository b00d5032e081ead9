// tabletalk - project CLI for class bundles and instance snapshots
//
// Reads tabletalk.toml (walking up from the project directory), loads the
// configured bundle documents, and inspects the snapshot store.
//
// Usage:
//   tabletalk check              # validate every configured bundle document
//   tabletalk classes            # list the classes the bundles register
//   tabletalk snapshots [id]     # list stored snapshots, or show one by id
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/tabletalk/bundle"
	"github.com/chazu/tabletalk/manifest"
	"github.com/chazu/tabletalk/object"
	"github.com/chazu/tabletalk/store"
	"github.com/chazu/tabletalk/wire"
)

func main() {
	projectDir := flag.String("C", ".", "Project directory (walks up to find tabletalk.toml)")
	verbosity := flag.Int("v", -1, "Log verbosity, overrides [log] in tabletalk.toml")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tabletalk [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  check              Validate every configured bundle document\n")
		fmt.Fprintf(os.Stderr, "  classes            List the classes the bundles register\n")
		fmt.Fprintf(os.Stderr, "  snapshots [id]     List stored snapshots, or show one by id\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tabletalk check               # validate the current project's bundles\n")
		fmt.Fprintf(os.Stderr, "  tabletalk -C ./demo classes   # list the demo project's classes\n")
		fmt.Fprintf(os.Stderr, "  tabletalk snapshots           # list saved snapshots\n")
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	m, err := manifest.FindAndLoad(*projectDir)
	if err != nil {
		fail(err)
	}
	if m == nil {
		fail(fmt.Errorf("no tabletalk.toml found in %s or any parent directory", *projectDir))
	}

	level := m.Log.Verbosity
	if *verbosity >= 0 {
		level = *verbosity
	}
	var logPath *string
	if m.Log.Path != "" {
		logPath = &m.Log.Path
	}
	commonlog.Configure(level, logPath)

	switch cmd := flag.Arg(0); cmd {
	case "check":
		err = runCheck(m)
	case "classes":
		err = runClasses(m)
	case "snapshots":
		err = runSnapshots(m, flag.Arg(1))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// loadDocuments loads and namespace-qualifies every bundle document the
// manifest names.
func loadDocuments(m *manifest.Manifest) ([]*bundle.Document, error) {
	paths := m.BundlePaths()
	if len(paths) == 0 {
		return nil, fmt.Errorf("no bundle paths configured in tabletalk.toml")
	}
	namespace := m.EffectiveNamespace()
	docs := make([]*bundle.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := bundle.Load(path)
		if err != nil {
			return nil, err
		}
		doc.Qualify(namespace)
		docs = append(docs, doc)
	}
	return docs, nil
}

// stubFuncs builds an inert host-function table covering every function
// reference in the documents. The CLI carries no host implementations;
// stubs let registration proceed so structure can be checked and listed.
func stubFuncs(docs []*bundle.Document) bundle.FuncTable {
	funcs := bundle.FuncTable{}
	for _, doc := range docs {
		for _, cd := range doc.Classes {
			for _, md := range cd.Members {
				if md.Function != "" {
					funcs[md.Function] = func(*object.Call) (object.Value, error) {
						return object.Nil, nil
					}
				}
			}
		}
	}
	return funcs
}

// registerAll loads the manifest's bundles into a fresh registry.
func registerAll(m *manifest.Manifest) (*object.Registry, []*bundle.Document, error) {
	docs, err := loadDocuments(m)
	if err != nil {
		return nil, nil, err
	}
	reg := object.NewRegistry()
	funcs := stubFuncs(docs)
	for _, doc := range docs {
		if _, err := bundle.Register(reg, doc, funcs); err != nil {
			return nil, nil, err
		}
	}
	return reg, docs, nil
}

// runCheck validates the bundles end to end: schema, modifiers, parent
// resolution, and merge conflicts all surface here.
func runCheck(m *manifest.Manifest) error {
	reg, docs, err := registerAll(m)
	if err != nil {
		return err
	}
	fmt.Printf("%d document(s) OK, %d class(es) registered\n", len(docs), reg.Len())
	return nil
}

// runClasses lists every registered class with its parents and a summary of
// its declared members.
func runClasses(m *manifest.Manifest) error {
	reg, _, err := registerAll(m)
	if err != nil {
		return err
	}

	for _, cls := range reg.All() {
		header := cls.Name()
		if parents := cls.Parents(); len(parents) > 0 {
			names := make([]string, len(parents))
			for i, p := range parents {
				names[i] = p.Name()
			}
			header += " < " + strings.Join(names, ", ")
		}
		if cls.IsAbstract() {
			header += "  (abstract)"
		}
		fmt.Println(header)

		for _, mi := range cls.Members() {
			if mi.Modifiers.Has(object.ModParent) {
				continue
			}
			line := fmt.Sprintf("  %-20s %s", mi.Name, mi.Kind)
			if mods := mi.Modifiers.String(); mods != "public" {
				line += "  [" + mods + "]"
			}
			if mi.Owner != cls.Name() {
				line += "  from " + mi.Owner
			}
			if mi.Ambiguous {
				line += "  (ambiguous)"
			}
			fmt.Println(line)
		}
	}
	fmt.Printf("\nTotal: %d class(es)\n", reg.Len())
	return nil
}

// runSnapshots lists the snapshot store, or prints one snapshot's data when
// an id is given.
func runSnapshots(m *manifest.Manifest, id string) error {
	s, err := store.Open(m.Snapshots.Driver, m.Snapshots.DSN)
	if err != nil {
		return err
	}
	defer s.Close()

	if id != "" {
		return showSnapshot(s, id)
	}

	entries, err := s.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %s\n", e.ID, e.Class)
	}
	fmt.Printf("\nTotal: %d snapshot(s)\n", len(entries))
	return nil
}

// showSnapshot prints one stored snapshot as indented JSON without
// rebuilding an instance, so snapshots of classes the bundles no longer
// declare stay inspectable.
func showSnapshot(s *store.Store, id string) error {
	data, err := s.Data(id)
	if err != nil {
		return err
	}
	out, err := wire.MarshalIndentJSON(data)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", out)
	return nil
}
