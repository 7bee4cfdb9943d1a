package answer

import "fmt"

// ServingConfigPath composes the fully qualified serving configuration
// address for a data store. Pure string composition; empty inputs produce a
// malformed path that the search call rejects with a readable error.
func ServingConfigPath(project, location, collection, dataStoreID string) string {
	return fmt.Sprintf(
		"projects/%s/locations/%s/collections/%s/dataStores/%s/servingConfigs/default_serving_config",
		project, location, collection, dataStoreID,
	)
}

// CollectionParent composes the parent path under which data stores are listed.
func CollectionParent(project, location, collection string) string {
	return fmt.Sprintf("projects/%s/locations/%s/collections/%s", project, location, collection)
}
