// Package archive packs generated badge trees into per-church and
// per-district zip files.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Report summarizes an archive packaging run.
type Report struct {
	ChurchArchives   int
	DistrictArchives int
	Failed           int
}

// BuildAll walks the badge tree under baseDir and produces one flat zip per
// church folder (next to the folder, inside the district) and one recursive
// zip per district folder (in baseDir). Existing archives are rebuilt from
// scratch. A failing folder is counted and skipped; a missing base folder
// aborts before anything is written.
func BuildAll(baseDir string) (Report, error) {
	var report Report

	districts, err := os.ReadDir(baseDir)
	if err != nil {
		return report, fmt.Errorf("read base folder %s: %w", baseDir, err)
	}

	for _, district := range districts {
		if !district.IsDir() {
			continue
		}
		districtPath := filepath.Join(baseDir, district.Name())

		churches, err := os.ReadDir(districtPath)
		if err != nil {
			log.Printf("archive: read district %s failed: %v", district.Name(), err)
			report.Failed++
			continue
		}
		for _, church := range churches {
			if !church.IsDir() || strings.HasSuffix(church.Name(), ".zip") {
				continue
			}
			src := filepath.Join(districtPath, church.Name())
			dst := filepath.Join(districtPath, church.Name()+".zip")
			if err := zipFlat(src, dst); err != nil {
				log.Printf("archive: church %s/%s failed: %v", district.Name(), church.Name(), err)
				report.Failed++
				continue
			}
			report.ChurchArchives++
		}

		dst := filepath.Join(baseDir, district.Name()+".zip")
		if err := zipTree(districtPath, dst); err != nil {
			log.Printf("archive: district %s failed: %v", district.Name(), err)
			report.Failed++
			continue
		}
		report.DistrictArchives++
	}

	log.Printf("archive: %d church and %d district archives built, %d failed",
		report.ChurchArchives, report.DistrictArchives, report.Failed)
	return report, nil
}

// zipFlat archives the direct files of dir; church folders have no subfolders
// so nothing below the first level is considered.
func zipFlat(dir, target string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	return writeZip(target, func(zw *zip.Writer) error {
		for _, e := range entries {
			if e.IsDir() || strings.HasSuffix(e.Name(), ".zip") {
				continue
			}
			if err := addFile(zw, filepath.Join(dir, e.Name()), e.Name()); err != nil {
				return err
			}
		}
		return nil
	})
}

// zipTree archives the full tree under dir with in-archive paths relative to
// dir. Zip files are excluded so church archives are not nested inside the
// district archive.
func zipTree(dir, target string) error {
	return writeZip(target, func(zw *zip.Writer) error {
		return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if strings.HasSuffix(d.Name(), ".zip") {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			return addFile(zw, path, filepath.ToSlash(rel))
		})
	})
}

// writeZip rebuilds target atomically enough for a single-writer batch: the
// old archive is removed first so reruns never append to stale content.
func writeZip(target string, fill func(*zip.Writer) error) error {
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale archive: %w", err)
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	zw := zip.NewWriter(f)
	if err := fill(zw); err != nil {
		zw.Close()
		f.Close()
		os.Remove(target)
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func addFile(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}
