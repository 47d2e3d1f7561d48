package commands

import (
	"fmt"
	"sort"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct{}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, baseDir, err := root.loadConfig()
	if err != nil {
		return err
	}
	res, err := newSiteBuilder(cfg, baseDir, "").builder.Check(g.Context)
	if err != nil {
		return err
	}

	types := make([]string, 0, len(res.Records))
	for typ := range res.Records {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		fmt.Printf("%-16s %d records\n", typ, res.Records[typ])
	}
	fmt.Printf("%-16s %d references\n", "assets", res.Assets)
	fmt.Printf("%-16s %d\n", "pages", len(cfg.Pages))
	if len(res.Problems) > 0 {
		fmt.Printf("%d problem(s) found\n", len(res.Problems))
		return res.Err()
	}
	fmt.Println("configuration and content are valid")
	return nil
}
