package apk

import (
	"context"
	"os"
	"path/filepath"

	"github.com/frantjc/goapk/aapt"
	"github.com/frantjc/goapk/apksigner"
	"github.com/frantjc/goapk/zipalign"
)

// AAPTArchiver binds Archiver to `aapt` and `zipalign`: the manifest,
// resources, and assets go through `aapt package`, native libraries
// through `aapt add` from the staging root, and the result is aligned
// into the output archive.
type AAPTArchiver struct {
	AAPT     aapt.Command
	Zipalign zipalign.Command
	// IncludeJar is the platform android.jar resources compile against.
	IncludeJar string
	// NoCompress stores every entry uncompressed, which debug builds
	// use for faster packaging and mmap-able libraries.
	NoCompress bool
}

func (a *AAPTArchiver) Archive(ctx context.Context, layout *Layout, out string) error {
	unaligned, err := filepath.Abs(out + ".unaligned")
	if err != nil {
		return err
	}
	defer os.Remove(unaligned)

	if err := a.AAPT.Package(ctx, unaligned, &aapt.PackageOpts{
		Force:              true,
		ManifestPath:       layout.ManifestPath,
		IncludeJar:         a.IncludeJar,
		ResourcesDirectory: layout.ResourcesDirectory,
		AssetsDirectory:    layout.AssetsDirectory,
		NoCompress:         a.NoCompress,
	}); err != nil {
		return err
	}

	if len(layout.Libs) > 0 {
		if err := a.AAPT.Add(ctx, unaligned, layout.Libs, &aapt.AddOpts{
			WorkingDirectory: layout.Dir,
		}); err != nil {
			return err
		}
	}

	return a.Zipalign.Align(ctx, unaligned, out, &zipalign.AlignOpts{Force: true})
}

// APKSignerSignTool binds SignTool to `apksigner`.
type APKSignerSignTool struct {
	APKSigner apksigner.Command
}

func (s *APKSignerSignTool) Sign(ctx context.Context, apk string, key *Key) error {
	return s.APKSigner.Sign(ctx, apk, &apksigner.SignOpts{
		KeyStore:         key.Keystore,
		KeyStorePassword: key.Password,
	})
}
