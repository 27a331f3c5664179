package detector

import "fmt"

// Size constants of the supported detector models.
var (
	Eiger2X4MSize = SizeConstants{
		Name:          "EIGER2_X_4M",
		DetSizePixels: PixelDims{Width: 2068, Height: 2162},
		ROISizePixels: PixelDims{Width: 1030, Height: 1065},
	}

	Eiger2X9MSize = SizeConstants{
		Name:          "EIGER2_X_9M",
		DetSizePixels: PixelDims{Width: 3108, Height: 3262},
		ROISizePixels: PixelDims{Width: 1030, Height: 1065},
	}

	Eiger2X16MSize = SizeConstants{
		Name:          "EIGER2_X_16M",
		DetSizePixels: PixelDims{Width: 4148, Height: 4362},
		ROISizePixels: PixelDims{Width: 1030, Height: 1065},
	}
)

var sizeConstantsByName = map[string]SizeConstants{
	Eiger2X4MSize.Name:  Eiger2X4MSize,
	Eiger2X9MSize.Name:  Eiger2X9MSize,
	Eiger2X16MSize.Name: Eiger2X16MSize,
}

// LookupSizeConstants resolves the size constants of a detector model by
// name.
func LookupSizeConstants(name string) (SizeConstants, error) {
	sc, ok := sizeConstantsByName[name]
	if !ok {
		return SizeConstants{}, fmt.Errorf("unknown detector model: %s", name)
	}

	return sc, nil
}
