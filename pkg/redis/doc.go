// Package redis connects to Redis with go-redis/v9.
//
// Redis is optional for the second-factor service: when REDIS_URL is set the
// daemon keeps sessions and accepted TOTP steps there so several instances can
// share them; otherwise both live in process memory.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	ready := redis.Healthcheck(client)
package redis
