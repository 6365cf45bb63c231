package data

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Dataset directory layout:
//
//	<root>/<location>/<point>/*.csv      one year of solar data, first file is used
//	<root>/<location>/Price/<year>.csv   price backbone per year
//	<root>/load_profile/*.csv            one year of household load
const (
	priceDir       = "Price"
	loadProfileDir = "load_profile"
)

// Catalog lists and loads datasets under Root.
type Catalog struct {
	Root string
}

func NewCatalog(root string) *Catalog {
	return &Catalog{Root: root}
}

// Locations returns the location directories, sorted.
func (c *Catalog) Locations() ([]string, error) {
	return listDirs(c.Root, loadProfileDir)
}

// Points returns the measurement points of a location, sorted.
func (c *Catalog) Points(location string) ([]string, error) {
	dir, err := c.join(location)
	if err != nil {
		return nil, err
	}
	return listDirs(dir, priceDir)
}

// Years returns the years that have a price file for the location.
func (c *Catalog) Years(location string) ([]int, error) {
	dir, err := c.join(location, priceDir)
	if err != nil {
		return nil, err
	}
	files, err := listCSV(dir)
	if err != nil {
		return nil, err
	}
	var years []int
	for _, f := range files {
		y, err := strconv.Atoi(strings.TrimSuffix(f, filepath.Ext(f)))
		if err != nil {
			continue
		}
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

// LoadProfiles returns the load profile file names, sorted.
func (c *Catalog) LoadProfiles() ([]string, error) {
	return listCSV(filepath.Join(c.Root, loadProfileDir))
}

// SolarFile returns the master solar file of a point.
func (c *Catalog) SolarFile(location, point string) (string, error) {
	dir, err := c.join(location, point)
	if err != nil {
		return "", err
	}
	files, err := listCSV(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: no solar file in %s/%s", ErrNoData, location, point)
	}
	return filepath.Join(dir, files[0]), nil
}

// join builds a path below Root, refusing names that would escape it.
func (c *Catalog) join(parts ...string) (string, error) {
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, `/\`) {
			return "", fmt.Errorf("%w: invalid name %q", ErrNoData, p)
		}
	}
	return filepath.Join(append([]string{c.Root}, parts...)...), nil
}

func listDirs(dir, exclude string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, e := range entries {
		if e.IsDir() && e.Name() != exclude && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func listCSV(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
