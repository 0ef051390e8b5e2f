package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/talgya/neo-haven/internal/citizens"
	"github.com/talgya/neo-haven/internal/world"
)

func runLayout(name string, population int, out io.Writer) error {
	n, ok := citizens.ParseNeighborhood(name)
	if !ok {
		return fmt.Errorf("unknown district %q", name)
	}
	d, ok := world.DistrictFor(n)
	if !ok {
		return fmt.Errorf("no layout for %q", n)
	}

	var roster []citizens.Citizen
	if population > 0 {
		roster = citizens.NewSpawner(citizens.DefaultSpawnConfig(), nil).Generate(population)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(world.LayoutFor(d, roster))
}
