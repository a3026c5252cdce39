package indexer

import "fmt"

// Key returns the storage key for one spatial cell of a dataset.
func Key(cellID int64, dataset string) string {
	return fmt.Sprintf("%s/%d", dataset, cellID)
}

// MasterSchemaKey returns the key of the zero-row shard that carries the
// dataset's field layout.
func MasterSchemaKey(dataset string) string {
	return dataset + "/master_schema"
}

// MasterConfigKey returns the key of the dataset's persisted config
// snapshot.
func MasterConfigKey(dataset string) string {
	return dataset + "/master_config"
}
