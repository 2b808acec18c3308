package helpers

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"shopdb/src/settings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func OpenDataFile(dataDirectory, fileName string) (*os.File, error) {
	// Open a specific data file
	filePath := filepath.Join(dataDirectory, fileName)
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening data file %s: %w", fileName, err)
	}
	return file, nil
}

// DeleteDataFile deletes a data file
func DeleteDataFile(filePath string) error {
	return os.Remove(filePath)
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string, logger zap.SugaredLogger) bool {
	args := settings.GetSettings()

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			if args.Debug && args.Verbose {
				logger.Infof("File does not exist: %s\n", filename)
			}
			return false // File does not exist
		}

		logger.Infof("Error checking file %s for existence: %s\n", filename, err)
		return false // Some other error occurred
	}

	return !info.IsDir() // Return true if it's not a directory
}

// EncodeBSON marshals a snapshot value into BSON
func EncodeBSON(value interface{}) ([]byte, error) {
	bsonData, err := bson.Marshal(value)
	if err != nil {
		log.Println("Error encoding BSON:", err)
		return nil, err
	}

	return bsonData, nil
}

// DecodeBSON unmarshals BSON bytes into the given destination
func DecodeBSON(bsonData []byte, dest interface{}) error {
	err := bson.Unmarshal(bsonData, dest)
	if err != nil {
		log.Println("Error decoding BSON:", err)
		return err
	}

	return nil
}
