package container

// ImageConfig contains all images and their respective tags
// needed for running e2e tests.
type ImageConfig struct {
	MongoRepository    string
	MongoVersion       string
	RabbitMQRepository string
	RabbitMQVersion    string
}

const (
	dockerMongoRepository = "mongo"
	// it should be in sync with mongo version used in production
	dockerMongoVersionTag    = "7.0.5"
	dockerRabbitMQRepository = "rabbitmq"
	dockerRabbitMQVersionTag = "3.13-management-alpine"
)

// NewImageConfig returns ImageConfig needed for running e2e test.
func NewImageConfig() ImageConfig {
	return ImageConfig{
		MongoRepository:    dockerMongoRepository,
		MongoVersion:       dockerMongoVersionTag,
		RabbitMQRepository: dockerRabbitMQRepository,
		RabbitMQVersion:    dockerRabbitMQVersionTag,
	}
}
