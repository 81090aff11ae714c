package prediction

func GetPredictionClient(version int, configBytes []byte) PredictionClient {
	switch version {
	case 1:
		return InitV1Client(configBytes)
	default:
		return nil
	}
}
