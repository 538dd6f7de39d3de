// Package redis connects to Redis with retries and exposes a health check.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	check := redis.Healthcheck(client)
//
// Connect parses REDIS_URL (redis:// or rediss://), then pings until the
// server answers or the retry budget is spent.
package redis
