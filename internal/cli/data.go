package cli

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/happyhackingspace/textcat/internal/fetch"
	"github.com/happyhackingspace/textcat/internal/storage"
	"github.com/spf13/cobra"
)

func (c *CLI) newDataCommand() *cobra.Command {
	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Pack and unpack labelled page folders used by evaluate",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	var pullDataFolder string
	pullCmd := &cobra.Command{
		Use:   "pull <url-or-file>",
		Short: "Extract a data.tar.gz archive into the data folder",
		Args:  cobra.ExactArgs(1),
		Example: `  textcat data pull https://example.org/pages.tar.gz
  textcat data pull pages.tar.gz --data-folder data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.dataPull(cmd.Context(), args[0], pullDataFolder)
		},
	}
	pullCmd.Flags().StringVar(&pullDataFolder, "data-folder", "data", "Destination folder for labelled pages")

	var packDataFolder, packOutput string
	packCmd := &cobra.Command{
		Use:     "pack",
		Short:   "Archive the data folder into a data.tar.gz",
		Example: `  textcat data pack --data-folder data --output pages.tar.gz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dataPack(packDataFolder, packOutput)
		},
	}
	packCmd.Flags().StringVar(&packDataFolder, "data-folder", "data", "Source folder of labelled pages")
	packCmd.Flags().StringVar(&packOutput, "output", "data.tar.gz", "Archive path")

	dataCmd.AddCommand(pullCmd, packCmd)
	return dataCmd
}

func (c *CLI) dataPull(ctx context.Context, source, dataFolder string) error {
	var r io.ReadCloser
	if fetch.IsURL(source) {
		slog.Info("Downloading labelled pages", "url", source)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return fmt.Errorf("download data: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("download data: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return fmt.Errorf("download data: HTTP %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		r = f
	}
	defer func() { _ = r.Close() }()

	if err := os.RemoveAll(dataFolder); err != nil {
		return fmt.Errorf("remove existing %s: %w", dataFolder, err)
	}
	count, err := unpackCorpus(r, dataFolder)
	if err != nil {
		return err
	}
	slog.Info("Labelled pages extracted", "files", count, "folder", dataFolder)

	samples, err := storage.NewStorage(dataFolder).IterSamples(storage.DefaultIterOptions())
	if err != nil {
		return fmt.Errorf("check extracted data: %w", err)
	}
	slog.Info("Data folder ready", "pages", len(samples), "labels", len(storage.Labels(samples)))
	return nil
}

// unpackCorpus extracts a gzipped tar into dataFolder. A leading "data/" in
// entry names is replaced by dataFolder; entries escaping it are rejected.
func unpackCorpus(r io.Reader, dataFolder string) (int, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("gzip reader: %w", err)
	}
	defer func() { _ = gr.Close() }()

	root := filepath.Clean(dataFolder)
	tr := tar.NewReader(gr)
	count := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read tar: %w", err)
		}

		name := strings.TrimSuffix(filepath.ToSlash(hdr.Name), "/")
		if name == "data" {
			name = ""
		}
		name = strings.TrimPrefix(name, "data/")
		if name != "" && !filepath.IsLocal(filepath.FromSlash(name)) {
			return count, fmt.Errorf("archive entry %q escapes %s", hdr.Name, dataFolder)
		}
		target := filepath.Join(root, filepath.FromSlash(name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, fmt.Errorf("create dir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return count, fmt.Errorf("create parent dir: %w", err)
			}
			f, err := os.Create(target)
			if err != nil {
				return count, fmt.Errorf("create file %s: %w", target, err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				_ = f.Close()
				return count, fmt.Errorf("write file %s: %w", target, err)
			}
			_ = f.Close()
			count++
		}
	}
	return count, nil
}

func dataPack(dataFolder, output string) error {
	slog.Info("Creating archive", "source", dataFolder, "dest", output)
	tf, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := packCorpus(dataFolder, tf); err != nil {
		_ = tf.Close()
		_ = os.Remove(output)
		return err
	}
	if err := tf.Close(); err != nil {
		return fmt.Errorf("close %s: %w", output, err)
	}
	slog.Info("Archive created", "path", output)
	return nil
}

// packCorpus writes dataFolder as a gzipped tar with entries under "data/".
func packCorpus(dataFolder string, w io.Writer) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	err := filepath.Walk(dataFolder, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dataFolder, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(filepath.Join("data", rel))
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		_ = tw.Close()
		_ = gw.Close()
		return fmt.Errorf("create archive: %w", err)
	}
	if err := tw.Close(); err != nil {
		_ = gw.Close()
		return fmt.Errorf("close tar: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("close gzip: %w", err)
	}
	return nil
}
