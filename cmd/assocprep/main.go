// assocprep consolidates genotype, phenotype, and covariate matrices for
// association testing: it resolves missing genotype calls with the configured
// strategy, writes the row-aligned matrices back out, and emits per-marker
// genotype statistics.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/raulk/go-watchdog"
	"go.dedis.ch/onet/v3/log"

	"github.com/statgo/assocprep/assoc"
	"github.com/statgo/assocprep/kinship"
	"github.com/statgo/assocprep/region"
)

type Config struct {
	GenoFile  string `toml:"geno_file"`
	PhenoFile string `toml:"pheno_file"`
	CovFile   string `toml:"covar_file"`

	MissingStrategy string `toml:"missing_strategy"`
	Seed            string `toml:"seed"`

	KinshipFile       string `toml:"kinship_file"`
	KinshipEigenFile  string `toml:"kinship_eigen_file"`
	KinshipXFile      string `toml:"kinship_x_file"`
	KinshipXEigenFile string `toml:"kinship_x_eigen_file"`

	GenomeBuild string `toml:"genome_build"`

	OutDir      string `toml:"output_dir"`
	MemoryLimit uint64 `toml:"memory_limit"`
}

func parseStrategy(s string) (assoc.Strategy, error) {
	switch strings.ToLower(s) {
	case "mean", "impute-mean":
		return assoc.ImputeMean, nil
	case "hwe", "impute-hwe":
		return assoc.ImputeHWE, nil
	case "drop":
		return assoc.Drop, nil
	}
	return assoc.Uninitialized, fmt.Errorf("unknown missing_strategy %q", s)
}

func parseBuild(s string) region.Build {
	if strings.EqualFold(s, "b38") || strings.EqualFold(s, "grch38") {
		return region.B38
	}
	return region.B37
}

func main() {
	confFile := flag.String("conf", "config.toml", "TOML configuration file")
	flag.Parse()

	config := new(Config)
	if _, err := toml.DecodeFile(*confFile, config); err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(config.OutDir, 0755); err != nil {
		log.Fatal(err)
	}

	if config.MemoryLimit > 0 {
		err, stopFn := watchdog.HeapDriven(config.MemoryLimit, 40, watchdog.NewAdaptivePolicy(0.5))
		if err != nil {
			log.Fatal(err)
		}
		defer stopFn()
	}

	strategy, err := parseStrategy(config.MissingStrategy)
	if err != nil {
		log.Fatal(err)
	}

	geno, sampleIDs, err := assoc.LoadLabeledMatrix(config.GenoFile, '\t')
	if err != nil {
		log.Fatal(err)
	}
	pheno, _, err := assoc.LoadLabeledMatrix(config.PhenoFile, '\t')
	if err != nil {
		log.Fatal(err)
	}
	cov, _, err := assoc.LoadLabeledMatrix(config.CovFile, '\t')
	if err != nil {
		log.Fatal(err)
	}
	log.LLvl1("loaded", geno.Rows(), "samples,", geno.Cols(), "markers")

	c := assoc.NewConsolidator()
	c.SetStrategy(strategy)
	c.SetSampleNames(sampleIDs)
	c.SetParRegion(region.NewParRegion(parseBuild(config.GenomeBuild)))
	if config.Seed != "" {
		c.Reseed([]byte(config.Seed))
	}

	if err := c.Consolidate(pheno, cov, geno); err != nil {
		log.Fatal(err)
	}
	log.LLvl1("consolidated with strategy", strategy.String(),
		"-", c.Genotype().Rows(), "samples remain")

	if ret := c.PreRegressionCheck(c.Phenotype(), c.Covariate()); ret != assoc.CheckOK {
		log.LLvl1("pre-regression check failed with code", ret)
	}

	loadKin := func(kind kinship.Kind, file, eigenFile string) {
		if file == "" && eigenFile == "" {
			return
		}
		c.SetKinshipSample(c.RowLabels())
		if file != "" {
			c.SetKinshipFile(kind, file)
		}
		if eigenFile != "" {
			c.SetKinshipEigenFile(kind, eigenFile)
		}
		// Load failures are non-fatal; downstream runs without correction.
		if err := c.LoadKinship(kind); err == nil {
			log.LLvl1("loaded", kind.String(), "kinship")
		}
	}
	loadKin(kinship.Auto, config.KinshipFile, config.KinshipEigenFile)
	loadKin(kinship.X, config.KinshipXFile, config.KinshipXEigenFile)

	out := func(name string) string { return filepath.Join(config.OutDir, name) }

	if err := assoc.SaveLabeledMatrix(out("genotype.txt"), c.Genotype(), c.RowLabels(), '\t'); err != nil {
		log.Fatal(err)
	}
	if err := assoc.SaveLabeledMatrix(out("phenotype.txt"), c.Phenotype(), c.RowLabels(), '\t'); err != nil {
		log.Fatal(err)
	}
	if err := assoc.SaveLabeledMatrix(out("covariate.txt"), c.Covariate(), c.RowLabels(), '\t'); err != nil {
		log.Fatal(err)
	}

	if err := writeMarkerStats(out("marker_stats.txt"), c); err != nil {
		log.Fatal(err)
	}
	log.LLvl1("wrote consolidated data to", config.OutDir)
}

// writeMarkerStats emits one row per marker with genotype-class counts, call
// rate, allele frequency, and the HWE exact-test P-value, computed from the
// pre-imputation genotype calls.
func writeMarkerStats(filename string, c *assoc.Consolidator) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, "MARKER\tN\tHOM_REF\tHET\tHOM_ALT\tMISSING\tCALL_RATE\tAF\tHWE_P"); err != nil {
		return err
	}

	geno := c.OriginalGenotype()
	counter := assoc.NewGenotypeCounter()
	for j := 0; j < geno.Cols(); j++ {
		counter.Reset()
		if ret := c.CountRawGenotypeAll(j, counter); ret != assoc.CountOK {
			return fmt.Errorf("counting marker %d failed with code %d", j, ret)
		}
		if _, err := fmt.Fprintf(f, "%s\t%d\t%d\t%d\t%d\t%d\t%.4f\t%.6f\t%.6g\n",
			geno.ColName(j), counter.NumSample(),
			counter.NumHomRef(), counter.NumHet(), counter.NumHomAlt(), counter.NumMissing(),
			counter.CallRate(), counter.AF(), counter.HWE()); err != nil {
			return err
		}
	}

	return nil
}
