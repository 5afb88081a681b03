package renderer

import (
	"embed"
	"io/fs"
)

//go:embed kernels/*.wgsl
var embeddedKernels embed.FS

// BundledKernels returns the fractal kernels shipped with the engine, rooted so that each file is
// addressed by its plain name.
func BundledKernels() fs.FS {
	sub, err := fs.Sub(embeddedKernels, "kernels")
	if err != nil {
		panic(err)
	}
	return sub
}
