package storage

import (
	"context"
	"io"
)

// Storage は生成したエクスポートファイルの保存先を抽象化するインターフェース。
type Storage interface {
	// Save は name でファイルを保存し、保存先の場所を返す。
	// name はファイル名のみ (例: "reservations_exitravels_2025-03-12.csv")。
	Save(ctx context.Context, name string, data io.Reader) (location string, err error)
}
