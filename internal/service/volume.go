package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// VolumeFile describes one file on the uploads volume.
type VolumeFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// VolumeDirectory is a recursive listing of part of the uploads tree.
type VolumeDirectory struct {
	Path        string            `json:"path"`
	Files       []VolumeFile      `json:"files"`
	Directories []VolumeDirectory `json:"directories"`
}

// VolumeStats summarizes uploads volume usage.
type VolumeStats struct {
	UploadsDir string `json:"uploadsDir"`
	TotalSize  int64  `json:"totalSize"`
	SizeInMB   string `json:"sizeInMB"`
	SizeInGB   string `json:"sizeInGB"`
	Exists     bool   `json:"exists"`
}

// VolumeService exposes operational inspection of the uploads directory tree
// so an administrator can spot orphan files left behind by best-effort
// cleanup.
type VolumeService struct {
	uploadsDir string
}

// NewVolumeService creates a new VolumeService rooted at uploadsDir.
func NewVolumeService(uploadsDir string) *VolumeService {
	return &VolumeService{uploadsDir: uploadsDir}
}

// ListFiles returns the whole uploads tree plus the total file count. A
// missing uploads directory yields a nil tree, not an error.
func (s *VolumeService) ListFiles() (*VolumeDirectory, int, error) {
	tree, err := listDirectory(s.uploadsDir, "/")
	if err != nil {
		return nil, 0, err
	}
	return tree, countFiles(tree), nil
}

// Stats aggregates the total size of the uploads tree.
func (s *VolumeService) Stats() (*VolumeStats, error) {
	_, statErr := os.Stat(s.uploadsDir)
	total, err := directorySize(s.uploadsDir)
	if err != nil {
		return nil, err
	}

	return &VolumeStats{
		UploadsDir: s.uploadsDir,
		TotalSize:  total,
		SizeInMB:   fmt.Sprintf("%.2f MB", float64(total)/(1024*1024)),
		SizeInGB:   fmt.Sprintf("%.2f GB", float64(total)/(1024*1024*1024)),
		Exists:     statErr == nil,
	}, nil
}

// ListTabFiles lists one tab's directory. A directory that does not exist
// yet is reported as empty.
func (s *VolumeService) ListTabFiles(tabID int64) (string, []VolumeFile, error) {
	tabDir := filepath.Join(s.uploadsDir, fmt.Sprintf("tab-%d", tabID))

	entries, err := os.ReadDir(tabDir)
	if err != nil {
		if os.IsNotExist(err) {
			return tabDir, []VolumeFile{}, nil
		}
		return tabDir, nil, err
	}

	files := make([]VolumeFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, VolumeFile{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	return tabDir, files, nil
}

func listDirectory(dirPath, relative string) (*VolumeDirectory, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	result := &VolumeDirectory{
		Path:        relative,
		Files:       []VolumeFile{},
		Directories: []VolumeDirectory{},
	}

	for _, entry := range entries {
		full := filepath.Join(dirPath, entry.Name())
		if entry.IsDir() {
			sub, err := listDirectory(full, filepath.Join(relative, entry.Name()))
			if err != nil {
				return nil, err
			}
			if sub != nil {
				result.Directories = append(result.Directories, *sub)
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		result.Files = append(result.Files, VolumeFile{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	return result, nil
}

func countFiles(dir *VolumeDirectory) int {
	if dir == nil {
		return 0
	}
	count := len(dir.Files)
	for i := range dir.Directories {
		count += countFiles(&dir.Directories[i])
	}
	return count
}

func directorySize(dirPath string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dirPath, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return 0, err
	}
	return total, nil
}
