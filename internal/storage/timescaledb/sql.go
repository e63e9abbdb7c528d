package timescaledb

const createTableSQL = `
CREATE TABLE IF NOT EXISTS observations (
    time timestamp WITH TIME ZONE NOT NULL,
    locationname text NULL,
    latitude float8 NULL,
    longitude float8 NULL,
    temperature float4 NULL,
    feelslike float4 NULL,
    tempmin float4 NULL,
    tempmax float4 NULL,
    pressure float4 NULL,
    humidity float4 NULL,
    windspeed float4 NULL,
    windgust float4 NULL,
    winddir float4 NULL,
    cloudcover float4 NULL,
    visibility float4 NULL,
    rain1h float4 NULL,
    snow1h float4 NULL,
    conditions text NULL,
    conditionsid int NULL,
    sunrise TIMESTAMP WITH TIME ZONE NULL,
    sunset TIMESTAMP WITH TIME ZONE NULL,
    potentialsolarwatts float4 NULL,
    aqi int NULL,
    pm25 float4 NULL,
    pm10 float4 NULL
);`

const createCO2TableSQL = `
CREATE TABLE IF NOT EXISTS co2_monthly (
    year int NOT NULL,
    month int NOT NULL,
    decimal_date float8 NOT NULL,
    monthly_average float8 NOT NULL,
    deseasonalized float8 NULL,
    num_days int NULL,
    std_dev float8 NULL,
    uncertainty float8 NULL,
    PRIMARY KEY (year, month)
);`

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createHypertableSQL = `SELECT create_hypertable('observations', 'time', if_not_exists => true);`

// Wind direction needs a vector mean; averaging raw degrees breaks at the
// 0/360 wrap. The state carries summed unit-vector components and the
// finalizer turns the mean vector back into a bearing.
const createCircAvgStateTypeSQL = `CREATE TYPE circular_avg_state AS (
    sin_sum real,
    cos_sum real,
    accum real
);`

const createCircAvgStateFunctionSQL = `CREATE OR REPLACE FUNCTION circular_avg_state_accumulator(state circular_avg_state, reading real)
RETURNS circular_avg_state
STRICT IMMUTABLE
LANGUAGE sql
AS $$
    SELECT ROW(
        (state).sin_sum + SIND(reading),
        (state).cos_sum + COSD(reading),
        (state).accum + 1
    )::public.circular_avg_state;
$$;`

const createCircAvgCombinerFunctionSQL = `CREATE OR REPLACE FUNCTION circular_avg_state_combiner(a circular_avg_state, b circular_avg_state)
RETURNS circular_avg_state
STRICT IMMUTABLE
LANGUAGE sql
AS $$
    SELECT ROW(
        (a).sin_sum + (b).sin_sum,
        (a).cos_sum + (b).cos_sum,
        (a).accum + (b).accum
    )::public.circular_avg_state;
$$;`

// An all-NULL bucket leaves the state at its initial condition; NULLIF turns
// the resulting 0/0 into NULL instead of a division error.
const createCircAvgFinalizerFunctionSQL = `CREATE OR REPLACE FUNCTION circular_avg_final(state circular_avg_state)
RETURNS real
STRICT IMMUTABLE
LANGUAGE sql
AS $$
    SELECT CASE WHEN deg < 0 THEN deg + 360 ELSE deg END
    FROM ATAN2D(
        (state).sin_sum / NULLIF((state).accum, 0),
        (state).cos_sum / NULLIF((state).accum, 0)
    ) AS deg;
$$;`

const createCircAvgAggregateFunctionSQL = `CREATE OR REPLACE AGGREGATE circular_avg (real)
(
    SFUNC = circular_avg_state_accumulator,
    STYPE = public.circular_avg_state,
    COMBINEFUNC = circular_avg_state_combiner,
    FINALFUNC = circular_avg_final,
    INITCOND = '(0,0,0)',
    PARALLEL = SAFE
);`

// period_precip and period_snow are the max of the provider's rolling one-hour
// accumulations seen within the bucket.
const create1hViewSQL = `CREATE MATERIALIZED VIEW IF NOT EXISTS observations_1h
WITH (timescaledb.continuous, timescaledb.materialized_only = false)
AS
SELECT
    time_bucket('1 hour', time) as bucket,
    locationname,
    avg(temperature) as temperature,
    max(temperature) as max_temperature,
    min(temperature) as min_temperature,
    avg(feelslike) as feelslike,
    min(tempmin) as tempmin,
    max(tempmax) as tempmax,
    avg(pressure) as pressure,
    max(pressure) as max_pressure,
    min(pressure) as min_pressure,
    avg(humidity) as humidity,
    max(humidity) as max_humidity,
    min(humidity) as min_humidity,
    avg(windspeed) as windspeed,
    max(windspeed) as max_windspeed,
    max(windgust) as windgust,
    circular_avg(winddir) as winddir,
    avg(cloudcover) as cloudcover,
    avg(visibility) as visibility,
    max(rain1h) as period_precip,
    max(snow1h) as period_snow,
    avg(potentialsolarwatts) as potentialsolarwatts,
    max(aqi) as aqi,
    avg(pm25) as pm25,
    max(pm25) as max_pm25,
    avg(pm10) as pm10,
    max(pm10) as max_pm10
FROM
    observations
GROUP BY bucket, locationname;`

const create1dViewSQL = `CREATE MATERIALIZED VIEW IF NOT EXISTS observations_1d
WITH (timescaledb.continuous, timescaledb.materialized_only = false)
AS
SELECT
    time_bucket('1 day', time) as bucket,
    locationname,
    avg(temperature) as temperature,
    max(temperature) as max_temperature,
    min(temperature) as min_temperature,
    avg(feelslike) as feelslike,
    min(tempmin) as tempmin,
    max(tempmax) as tempmax,
    avg(pressure) as pressure,
    max(pressure) as max_pressure,
    min(pressure) as min_pressure,
    avg(humidity) as humidity,
    max(humidity) as max_humidity,
    min(humidity) as min_humidity,
    avg(windspeed) as windspeed,
    max(windspeed) as max_windspeed,
    max(windgust) as windgust,
    circular_avg(winddir) as winddir,
    avg(cloudcover) as cloudcover,
    avg(visibility) as visibility,
    max(rain1h) as period_precip,
    max(snow1h) as period_snow,
    avg(potentialsolarwatts) as potentialsolarwatts,
    max(aqi) as aqi,
    avg(pm25) as pm25,
    max(pm25) as max_pm25,
    avg(pm10) as pm10,
    max(pm10) as max_pm10
FROM
    observations
GROUP BY bucket, locationname;`

const addAggregationPolicy1hSQL = `SELECT add_continuous_aggregate_policy('observations_1h', INTERVAL '2 years', INTERVAL '1 hour', INTERVAL '1 hour', if_not_exists => true);`
const addAggregationPolicy1dSQL = `SELECT add_continuous_aggregate_policy('observations_1d', INTERVAL '10 years', INTERVAL '1 day', INTERVAL '1 day', if_not_exists => true);`

const addRetentionPolicySQL = `SELECT add_retention_policy('observations', INTERVAL '365 days', if_not_exists => true);`
const addRetentionPolicy1hSQL = `SELECT add_retention_policy('observations_1h', INTERVAL '2 years', if_not_exists => true);`
