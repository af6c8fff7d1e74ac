package db

import (
	"reflect"
	"sync"
)

// Dbfunc is implemented by every table-mapped struct.
type Dbfunc interface {
	TableName() string
}

type BaseField struct {
	Id        uint  `db:"id" json:"id"`
	CreatedAt int64 `db:"created_at" json:"created_at"`
	UpdatedAt int64 `db:"updated_at" json:"-"`
}

var (
	once sync.Once

	baseFieldInfo struct {
		CreatedAtDbTag string
		UpdatedAtDbTag string
	}
)

func GetBaseFieldDbTags() struct {
	CreatedAtDbTag string
	UpdatedAtDbTag string
} {
	once.Do(func() {
		t := reflect.TypeOf(BaseField{})

		if field, found := t.FieldByName("CreatedAt"); found {
			baseFieldInfo.CreatedAtDbTag = field.Tag.Get("db")
		}
		if field, found := t.FieldByName("UpdatedAt"); found {
			baseFieldInfo.UpdatedAtDbTag = field.Tag.Get("db")
		}
	})
	return baseFieldInfo
}
